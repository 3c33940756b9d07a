package paillier

import (
	"crypto/sha256"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	pailliercore "github.com/stevebriskin/private-join-and-compute/core/paillier"
)

// PaillierKey wraps a Paillier key pair for storage in a keystore. The
// secret part is nil for imported public keys (the server's view of the
// client's key).
type PaillierKey struct {
	secretKey *pailliercore.SecretKey
	publicKey *pailliercore.PublicKey
}

// NewPaillierKey wraps an existing secret key.
func NewPaillierKey(sk *pailliercore.SecretKey) *PaillierKey {
	return &PaillierKey{secretKey: sk, publicKey: sk.PublicKey}
}

// NewPaillierPublicKey wraps a public key only.
func NewPaillierPublicKey(pk *pailliercore.PublicKey) *PaillierKey {
	return &PaillierKey{publicKey: pk}
}

type paillierKeySerialized struct {
	N []byte `cbor:"n"`
	P []byte `cbor:"p,omitempty"`
	Q []byte `cbor:"q,omitempty"`
}

// Bytes returns the encoded key: the modulus N, plus the prime factors when
// the secret part is present.
func (k *PaillierKey) Bytes() ([]byte, error) {
	enc := paillierKeySerialized{N: k.publicKey.Bytes()}
	if k.secretKey != nil {
		enc.P = k.secretKey.P().Bytes()
		enc.Q = k.secretKey.Q().Bytes()
	}
	return cbor.Marshal(&enc)
}

// SKI returns the Subject Key Identifier of the key, derived from the
// public modulus.
func (k *PaillierKey) SKI() []byte {
	h := sha256.New()
	h.Write(k.publicKey.Bytes())
	return h.Sum(nil)
}

// Private reports whether the key contains the secret part.
func (k *PaillierKey) Private() bool {
	return k.secretKey != nil
}

// PublicKey returns the public part of the key.
func (k *PaillierKey) PublicKey() *pailliercore.PublicKey {
	return k.publicKey
}

// SecretKey returns the secret part, or nil for public-only keys.
func (k *PaillierKey) SecretKey() *pailliercore.SecretKey {
	return k.secretKey
}

// fromBytes reconstructs a key from its encoding, recomputing the derived
// decryption values when the prime factors are present.
func fromBytes(data []byte) (*PaillierKey, error) {
	var enc paillierKeySerialized
	if err := cbor.Unmarshal(data, &enc); err != nil {
		return nil, errors.WithMessage(err, "paillier: malformed key encoding")
	}
	if len(enc.N) == 0 {
		return nil, errors.New("paillier: key encoding missing modulus")
	}

	if len(enc.P) == 0 || len(enc.Q) == 0 {
		n := saferith.ModulusFromNat(new(saferith.Nat).SetBytes(enc.N))
		return NewPaillierPublicKey(pailliercore.NewPublicKey(n)), nil
	}

	p := new(saferith.Nat).SetBytes(enc.P)
	q := new(saferith.Nat).SetBytes(enc.Q)
	return NewPaillierKey(pailliercore.NewSecretKeyFromPrimes(p, q)), nil
}
