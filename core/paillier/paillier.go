// Package paillier implements the additively-homomorphic Paillier
// cryptosystem over a modulus n = p⋅q for safe primes p and q.
//
// Plaintexts are elements of [0, n); ciphertexts are units of Z*_{n²}.
// The product of two ciphertexts decrypts to the sum of their plaintexts.
package paillier

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"

	"github.com/stevebriskin/private-join-and-compute/core/math/arith"
	"github.com/stevebriskin/private-join-and-compute/core/math/sample"
	"github.com/stevebriskin/private-join-and-compute/core/pool"
)

// MinModulusBits is the smallest public-modulus size accepted by KeyGen.
const MinModulusBits = 1024

var (
	ErrModulusTooSmall     = errors.Errorf("paillier: modulus size below minimum %d bits", MinModulusBits)
	ErrPlaintextOutOfRange = errors.New("paillier: plaintext must be in [0, N)")
	ErrNilCiphertext       = errors.New("paillier: nil ciphertext")
)

var oneNat = new(saferith.Nat).SetUint64(1)

// PublicKey is a Paillier public key. Its only parameter is the modulus n;
// the generator is fixed to n+1.
type PublicKey struct {
	n        *arith.Modulus
	nSquared *arith.Modulus

	// n as a Nat, cached to avoid recomputation
	nNat *saferith.Nat
}

// NewPublicKey returns the public key for a given modulus n.
func NewPublicKey(n *saferith.Modulus) *PublicKey {
	nNat := n.Nat()
	nSquared := saferith.ModulusFromNat(new(saferith.Nat).Mul(nNat, nNat, -1))
	return &PublicKey{
		n:        arith.ModulusFromN(n),
		nSquared: arith.ModulusFromN(nSquared),
		nNat:     nNat,
	}
}

// N returns the public modulus.
func (pk *PublicKey) N() *saferith.Modulus { return pk.n.Modulus }

// Bytes returns the big-endian encoding of the public modulus.
func (pk *PublicKey) Bytes() []byte { return pk.n.Bytes() }

// Enc returns the encryption of m under this key with a fresh random nonce.
// m must be in [0, N).
func (pk *PublicKey) Enc(rand io.Reader, m *saferith.Nat) (*Ciphertext, error) {
	if m == nil {
		return nil, ErrPlaintextOutOfRange
	}
	if _, _, lt := m.CmpMod(pk.n.Modulus); lt != 1 {
		return nil, ErrPlaintextOutOfRange
	}
	nonce := sample.UnitModN(rand, pk.n.Modulus)
	return pk.encWithNonce(m, nonce), nil
}

// encWithNonce computes (1+n)ᵐ ⋅ nonceⁿ (mod n²), using the identity
// (1+n)ᵐ = 1 + m⋅n (mod n²).
func (pk *PublicKey) encWithNonce(m, nonce *saferith.Nat) *Ciphertext {
	c := new(saferith.Nat).Mul(m, pk.nNat, -1)
	c.Mod(c, pk.nSquared.Modulus)
	c.ModAdd(c, oneNat, pk.nSquared.Modulus)

	rhoN := pk.nSquared.Exp(nonce, pk.nNat)
	c.ModMul(c, rhoN, pk.nSquared.Modulus)
	return &Ciphertext{c: c}
}

// Add returns the ciphertext whose plaintext is the sum of the two
// arguments' plaintexts: c₁ ⋅ c₂ (mod n²).
func (pk *PublicKey) Add(ct1, ct2 *Ciphertext) *Ciphertext {
	c := new(saferith.Nat).ModMul(ct1.c, ct2.c, pk.nSquared.Modulus)
	return &Ciphertext{c: c}
}

// Rerandomize multiplies ct by an encryption of zero under a fresh nonce,
// producing a ciphertext of the same plaintext that is statistically
// independent of ct.
func (pk *PublicKey) Rerandomize(rand io.Reader, ct *Ciphertext) *Ciphertext {
	nonce := sample.UnitModN(rand, pk.n.Modulus)
	rhoN := pk.nSquared.Exp(nonce, pk.nNat)
	c := new(saferith.Nat).ModMul(ct.c, rhoN, pk.nSquared.Modulus)
	return &Ciphertext{c: c}
}

// ValidateCiphertexts checks that every argument is in [1, n²) and is a unit
// of Z*_{n²}.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	for _, ct := range cts {
		if ct == nil || ct.c == nil {
			return false
		}
		if _, _, lt := ct.c.CmpMod(pk.nSquared.Modulus); lt != 1 {
			return false
		}
		if ct.c.IsUnit(pk.nSquared.Modulus) != 1 {
			return false
		}
	}
	return true
}

// SecretKey is a Paillier secret key. It holds the prime factors of the
// modulus and the precomputed values used during decryption.
type SecretKey struct {
	*PublicKey
	p, q *saferith.Nat
	// phi = (p-1)(q-1)
	phi *saferith.Nat
	// phiInv = phi⁻¹ (mod n)
	phiInv *saferith.Nat
}

// KeyGen generates a key pair whose modulus is the product of two distinct
// safe primes of bits/2 bits each. The search is parallelized over pl and
// may take a long time for large sizes.
func KeyGen(rand io.Reader, pl *pool.Pool, bits int) (*SecretKey, error) {
	if bits < MinModulusBits {
		return nil, ErrModulusTooSmall
	}
	p, q, err := sample.SafePrimes(rand, pl, bits/2)
	if err != nil {
		return nil, errors.WithMessage(err, "paillier: key generation failed")
	}
	return NewSecretKeyFromPrimes(p, q), nil
}

// NewSecretKeyFromPrimes computes a secret key from its prime factors.
// The primes are trusted to be distinct safe primes; this is the
// rehydration path for serialized keys.
func NewSecretKeyFromPrimes(p, q *saferith.Nat) *SecretKey {
	n := arith.ModulusFromFactors(p, q)
	nNat := n.Nat()

	pSquared := new(saferith.Nat).Mul(p, p, -1)
	qSquared := new(saferith.Nat).Mul(q, q, -1)
	nSquared := arith.ModulusFromFactors(pSquared, qSquared)

	pMinus1 := new(saferith.Nat).Sub(p, oneNat, -1)
	qMinus1 := new(saferith.Nat).Sub(q, oneNat, -1)
	phi := new(saferith.Nat).Mul(pMinus1, qMinus1, -1)
	phiInv := new(saferith.Nat).ModInverse(phi, n.Modulus)

	return &SecretKey{
		PublicKey: &PublicKey{
			n:        n,
			nSquared: nSquared,
			nNat:     nNat,
		},
		p:      p,
		q:      q,
		phi:    phi,
		phiInv: phiInv,
	}
}

// P returns the first prime factor of the modulus.
func (sk *SecretKey) P() *saferith.Nat { return sk.p }

// Q returns the second prime factor of the modulus.
func (sk *SecretKey) Q() *saferith.Nat { return sk.q }

// Dec decrypts ct, returning its plaintext in [0, N).
//
// The ciphertext is first reduced mod n², so any integer decrypts to a
// well-defined (if meaningless) value; only a nil ciphertext is an error.
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Nat, error) {
	if ct == nil || ct.c == nil {
		return nil, ErrNilCiphertext
	}
	c := new(saferith.Nat).Mod(ct.c, sk.nSquared.Modulus)

	// L(c^phi mod n²) ⋅ phi⁻¹ (mod n), with L(u) = (u-1)/n
	result := sk.nSquared.Exp(c, sk.phi)
	result.ModSub(result, oneNat, sk.nSquared.Modulus)
	result.Div(result, sk.n.Modulus, -1)
	result.ModMul(result, sk.phiInv, sk.n.Modulus)
	return result, nil
}
