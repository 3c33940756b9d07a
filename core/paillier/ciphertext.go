package paillier

import (
	"github.com/cronokirby/saferith"
)

// Ciphertext is an element of Z*_{n²} for some Paillier public key.
// The zero value is not usable; obtain ciphertexts from PublicKey
// operations or CiphertextFromBytes.
type Ciphertext struct {
	c *saferith.Nat
}

// CiphertextFromBytes interprets b as the big-endian encoding of a
// ciphertext. No range validation is performed here; use
// (*PublicKey).ValidateCiphertexts.
func CiphertextFromBytes(b []byte) *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetBytes(b)}
}

// Bytes returns the minimal big-endian encoding of the ciphertext.
func (ct *Ciphertext) Bytes() []byte {
	b := ct.c.Bytes()
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return b[i:]
}

// Nat returns the underlying integer.
func (ct *Ciphertext) Nat() *saferith.Nat { return ct.c }

// Equal reports whether two ciphertexts are the same element of Z_{n²}.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	if ct == nil || other == nil {
		return ct == other
	}
	return ct.c.Eq(other.c) == 1
}
