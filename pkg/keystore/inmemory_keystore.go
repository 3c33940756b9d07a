package keystore

import (
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keyopts"
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keystore"
	"github.com/stevebriskin/private-join-and-compute/pkg/common/vault"
)

var _ keystore.Keystore = (*InMemoryKeystore)(nil)

// InMemoryKeystore composes a vault holding raw key material with a key
// metadata repository addressing it by session and role.
type InMemoryKeystore struct {
	v  vault.Vault
	kr keyopts.KeyOpts
}

func NewInMemoryKeystore(v vault.Vault, kr keyopts.KeyOpts) *InMemoryKeystore {
	return &InMemoryKeystore{
		v:  v,
		kr: kr,
	}
}

func (ks *InMemoryKeystore) Import(ski string, key []byte, opts keyopts.Options) error {
	if err := ks.v.Import(ski, key); err != nil {
		return err
	}
	return ks.kr.Import(ski, opts)
}

func (ks *InMemoryKeystore) Get(opts keyopts.Options) ([]byte, error) {
	kd, err := ks.kr.Get(opts)
	if err != nil {
		return nil, err
	}
	return ks.v.Get(kd.SKI)
}

func (ks *InMemoryKeystore) Delete(opts keyopts.Options) error {
	kd, err := ks.kr.Get(opts)
	if err != nil {
		return err
	}
	if err := ks.v.Delete(kd.SKI); err != nil {
		return err
	}
	return ks.kr.Delete(opts)
}
