package sample

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// maxIterations bounds the rejection-sampling loops in this package, except
// the safe-prime search in SafePrimes, which runs until it finds its primes.
// The bound is hit only when the randomness source is broken.
const maxIterations = 255

var ErrMaxIterations = errors.Errorf("sample: failed to generate after %d iterations", maxIterations)

// mustReadBits fills buf with random bits. Failure to read randomness is
// fatal, so this panics instead of returning an error.
func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// ModN samples an element of [0, n).
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	// Sampling 64 extra bits and reducing mod n keeps the statistical
	// distance from uniform negligible.
	buf := make([]byte, (n.BitLen()+7)/8+8)
	mustReadBits(rand, buf)
	out := new(saferith.Nat).SetBytes(buf)
	return out.Mod(out, n)
}

// UnitModN returns a unit of the group Z*_n.
func UnitModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	unit := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	for i := 0; i < maxIterations; i++ {
		mustReadBits(rand, buf)
		unit.SetBytes(buf)
		unit.Mod(unit, n)
		if unit.IsUnit(n) == 1 {
			return unit
		}
	}
	panic(ErrMaxIterations)
}

// Scalar samples a uniform non-zero scalar of the secp256k1 group.
func Scalar(rand io.Reader, s *secp256k1.ModNScalar) error {
	var buf [32]byte
	for i := 0; i < maxIterations; i++ {
		mustReadBits(rand, buf[:])
		if overflow := s.SetByteSlice(buf[:]); overflow {
			continue
		}
		if s.IsZero() {
			continue
		}
		return nil
	}
	return ErrMaxIterations
}
