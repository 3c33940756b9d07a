package ecc

import (
	"crypto/sha256"

	ecccore "github.com/stevebriskin/private-join-and-compute/core/ecc"
)

// ECCKey wraps a commutative-cipher key for storage in a keystore.
type ECCKey struct {
	cipher *ecccore.Cipher
}

// NewECCKey wraps an existing cipher.
func NewECCKey(cipher *ecccore.Cipher) *ECCKey {
	return &ECCKey{cipher: cipher}
}

// Bytes returns the serialized secret scalar.
func (k *ECCKey) Bytes() ([]byte, error) {
	return k.cipher.KeyBytes(), nil
}

// SKI returns the Subject Key Identifier of the key, derived from the
// public point k⋅G so the secret scalar never feeds a non-secret value.
func (k *ECCKey) SKI() []byte {
	h := sha256.New()
	h.Write(k.cipher.Public().Bytes())
	return h.Sum(nil)
}

// Cipher returns the underlying commutative cipher.
func (k *ECCKey) Cipher() *ecccore.Cipher {
	return k.cipher
}

// fromBytes reconstructs a key from its serialized scalar.
func fromBytes(data []byte) (*ECCKey, error) {
	cipher, err := ecccore.CipherFromBytes(data)
	if err != nil {
		return nil, err
	}
	return &ECCKey{cipher: cipher}, nil
}
