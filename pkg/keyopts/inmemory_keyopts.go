package keyopts

import (
	"errors"
	"sync"

	com_keyopts "github.com/stevebriskin/private-join-and-compute/pkg/common/keyopts"
)

var (
	ErrInvalidSessionID = errors.New("keyopts: invalid session id")
	ErrInvalidRole      = errors.New("keyopts: invalid role")
	ErrKeyNotFound      = errors.New("keyopts: key not found")
)

type roleKeys map[string]*com_keyopts.KeyData

// KeyOpts is an in-memory key metadata repository mapping session ID and
// party role to the SKI of the stored key.
type KeyOpts struct {
	lock sync.RWMutex

	// keys maps session ID to a map of role to key metadata.
	keys map[string]roleKeys
}

func NewInMemoryKeyOpts() *KeyOpts {
	return &KeyOpts{
		keys: make(map[string]roleKeys),
	}
}

func optionParams(opts com_keyopts.Options) (sessionID, role string, err error) {
	id, ok := opts.Get("id")
	if !ok {
		return "", "", ErrInvalidSessionID
	}
	sessionID, ok = id.(string)
	if !ok {
		return "", "", ErrInvalidSessionID
	}

	r, ok := opts.Get("role")
	if !ok {
		return "", "", ErrInvalidRole
	}
	role, ok = r.(string)
	if !ok {
		return "", "", ErrInvalidRole
	}
	return sessionID, role, nil
}

func (kr *KeyOpts) Import(ski string, opts com_keyopts.Options) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()

	sessionID, role, err := optionParams(opts)
	if err != nil {
		return err
	}

	if _, ok := kr.keys[sessionID]; !ok {
		kr.keys[sessionID] = make(roleKeys)
	}
	kr.keys[sessionID][role] = &com_keyopts.KeyData{
		Role: role,
		SKI:  ski,
	}
	return nil
}

func (kr *KeyOpts) Get(opts com_keyopts.Options) (*com_keyopts.KeyData, error) {
	kr.lock.RLock()
	defer kr.lock.RUnlock()

	sessionID, role, err := optionParams(opts)
	if err != nil {
		return nil, err
	}

	ks, ok := kr.keys[sessionID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	k, ok := ks[role]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return k, nil
}

func (kr *KeyOpts) Delete(opts com_keyopts.Options) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()

	sessionID, role, err := optionParams(opts)
	if err != nil {
		return err
	}

	ks, ok := kr.keys[sessionID]
	if !ok {
		return ErrKeyNotFound
	}
	delete(ks, role)
	return nil
}

func (kr *KeyOpts) DeleteAll(opts com_keyopts.Options) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()

	id, ok := opts.Get("id")
	if !ok {
		return ErrInvalidSessionID
	}
	sessionID, ok := id.(string)
	if !ok {
		return ErrInvalidSessionID
	}

	delete(kr.keys, sessionID)
	return nil
}
