package sample

import (
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"

	"github.com/stevebriskin/private-join-and-compute/core/pool"
)

// The number of Miller-Rabin rounds on each candidate. Candidates are
// randomly chosen, not adversarial, so this gives an error probability of
// 4⁻²⁰ per accepted prime.
const primalityIterations = 20

// MinPrimeBits is the smallest safe-prime size this package will search for.
const MinPrimeBits = 16

// The odd primes up to 1000, used to sieve candidates before running the more
// expensive primality test.
var sievePrimes = []uint64{
	3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67,
	71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139,
	149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223,
	227, 229, 233, 239, 241, 251, 257, 263, 269, 271, 277, 281, 283, 293,
	307, 311, 313, 317, 331, 337, 347, 349, 353, 359, 367, 373, 379, 383,
	389, 397, 401, 409, 419, 421, 431, 433, 439, 443, 449, 457, 461, 463,
	467, 479, 487, 491, 499, 503, 509, 521, 523, 541, 547, 557, 563, 569,
	571, 577, 587, 593, 599, 601, 607, 613, 617, 619, 631, 641, 643, 647,
	653, 659, 661, 673, 677, 683, 691, 701, 709, 719, 727, 733, 739, 743,
	751, 757, 761, 769, 773, 787, 797, 809, 811, 821, 823, 827, 829, 839,
	853, 857, 859, 863, 877, 881, 883, 887, 907, 911, 919, 929, 937, 941,
	947, 953, 967, 971, 977, 983, 991, 997,
}

// trySafePrime samples a random candidate of the given bit length and
// returns it if both the candidate p and (p-1)/2 are probably prime.
// Returns nil when the candidate is rejected.
func trySafePrime(rand io.Reader, bits int) *saferith.Nat {
	buf := make([]byte, (bits+7)/8)
	mustReadBits(rand, buf)

	p := new(big.Int).SetBytes(buf)
	// Drop the random bits beyond the requested length.
	p.Rsh(p, uint(len(buf)*8-bits))
	// Set the top two bits so the product of two primes has the full
	// intended size, and the bottom two so that p ≡ 3 (mod 4).
	p.SetBit(p, bits-1, 1)
	p.SetBit(p, bits-2, 1)
	p.SetBit(p, 1, 1)
	p.SetBit(p, 0, 1)
	// q = (p-1)/2; p is odd, so this is a right shift.
	q := new(big.Int).Rsh(p, 1)

	r := new(big.Int)
	s := new(big.Int)
	for _, prime := range sievePrimes {
		s.SetUint64(prime)
		if r.Mod(p, s).Sign() == 0 {
			return nil
		}
		if r.Mod(q, s).Sign() == 0 {
			return nil
		}
	}

	// Testing q first: it is the rarer event, so most candidates die here.
	if !q.ProbablyPrime(primalityIterations) {
		return nil
	}
	if !p.ProbablyPrime(primalityIterations) {
		return nil
	}
	return new(saferith.Nat).SetBig(p, bits)
}

// SafePrimes generates two distinct safe primes of the given bit length,
// searching in parallel over the pool. The search is rejection-sampled and
// potentially long-running for large sizes.
func SafePrimes(rand io.Reader, pl *pool.Pool, bits int) (p, q *saferith.Nat, err error) {
	if bits < MinPrimeBits {
		return nil, nil, errors.Errorf("sample: prime size %d below minimum %d", bits, MinPrimeBits)
	}
	results := pl.Search(2, func() interface{} {
		if r := trySafePrime(rand, bits); r != nil {
			return r
		}
		return nil
	})
	p = results[0].(*saferith.Nat)
	q = results[1].(*saferith.Nat)
	for i := 0; p.Eq(q) == 1; i++ {
		if i == maxIterations {
			return nil, nil, ErrMaxIterations
		}
		results = pl.Search(1, func() interface{} {
			if r := trySafePrime(rand, bits); r != nil {
				return r
			}
			return nil
		})
		q = results[0].(*saferith.Nat)
	}
	return p, q, nil
}
