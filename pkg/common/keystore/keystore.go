package keystore

import (
	"github.com/stevebriskin/private-join-and-compute/pkg/common/keyopts"
)

// Keystore stores key material together with the metadata that addresses
// it. Implementations compose a vault (raw bytes by SKI) with a key
// metadata repository (session/role to SKI).
type Keystore interface {
	Import(ski string, key []byte, opts keyopts.Options) error
	Get(opts keyopts.Options) ([]byte, error)
	Delete(opts keyopts.Options) error
}
