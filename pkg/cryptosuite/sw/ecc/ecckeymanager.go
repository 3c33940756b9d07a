package ecc

import (
	"encoding/hex"
	"io"

	"github.com/pkg/errors"

	ecccore "github.com/stevebriskin/private-join-and-compute/core/ecc"
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keyopts"
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keystore"
)

// ECCKeyManager generates, stores and applies commutative-cipher keys.
// Key material lives in the keystore; every operation retrieves it by the
// session/role options.
type ECCKeyManager struct {
	ks   keystore.Keystore
	rand io.Reader
}

func NewECCKeyManager(ks keystore.Keystore, rand io.Reader) *ECCKeyManager {
	return &ECCKeyManager{
		ks:   ks,
		rand: rand,
	}
}

// GenerateKey creates a fresh cipher key and imports it into the keystore.
func (mgr *ECCKeyManager) GenerateKey(opts keyopts.Options) (*ECCKey, error) {
	cipher, err := ecccore.NewCipher(mgr.rand)
	if err != nil {
		return nil, err
	}
	key := &ECCKey{cipher: cipher}
	return key, mgr.importKey(key, opts)
}

// ImportKey stores a key deserialized from raw bytes.
func (mgr *ECCKeyManager) ImportKey(data []byte, opts keyopts.Options) (*ECCKey, error) {
	key, err := fromBytes(data)
	if err != nil {
		return nil, err
	}
	return key, mgr.importKey(key, opts)
}

func (mgr *ECCKeyManager) importKey(key *ECCKey, opts keyopts.Options) error {
	raw, err := key.Bytes()
	if err != nil {
		return err
	}
	ski := hex.EncodeToString(key.SKI())
	return mgr.ks.Import(ski, raw, opts)
}

// GetKey retrieves the key stored under the given options.
func (mgr *ECCKeyManager) GetKey(opts keyopts.Options) (*ECCKey, error) {
	raw, err := mgr.ks.Get(opts)
	if err != nil {
		return nil, errors.WithMessage(err, "ecc: key not found")
	}
	return fromBytes(raw)
}

// DeleteKey removes the key stored under the given options.
func (mgr *ECCKeyManager) DeleteKey(opts keyopts.Options) error {
	return mgr.ks.Delete(opts)
}

// Encrypt hashes msg to the curve and multiplies by the stored key.
func (mgr *ECCKeyManager) Encrypt(msg []byte, opts keyopts.Options) (*ecccore.Point, error) {
	key, err := mgr.GetKey(opts)
	if err != nil {
		return nil, err
	}
	return key.cipher.Encrypt(msg)
}

// ReEncrypt multiplies an already-encrypted point by the stored key.
func (mgr *ECCKeyManager) ReEncrypt(p *ecccore.Point, opts keyopts.Options) (*ecccore.Point, error) {
	key, err := mgr.GetKey(opts)
	if err != nil {
		return nil, err
	}
	return key.cipher.ReEncrypt(p), nil
}
