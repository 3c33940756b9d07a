package sample

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevebriskin/private-join-and-compute/core/pool"
)

func TestModN(t *testing.T) {
	n := saferith.ModulusFromNat(new(saferith.Nat).SetUint64(1019 * 1187))
	for i := 0; i < 32; i++ {
		x := ModN(rand.Reader, n)
		_, _, lt := x.CmpMod(n)
		assert.Equal(t, saferith.Choice(1), lt)
	}
}

func TestUnitModN(t *testing.T) {
	n := saferith.ModulusFromNat(new(saferith.Nat).SetUint64(1019 * 1187))
	for i := 0; i < 32; i++ {
		u := UnitModN(rand.Reader, n)
		assert.Equal(t, saferith.Choice(1), u.IsUnit(n))
	}
}

func TestScalar(t *testing.T) {
	var s secp256k1.ModNScalar
	require.NoError(t, Scalar(rand.Reader, &s))
	assert.False(t, s.IsZero())
}

func TestSafePrimes(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	const bits = 64
	p, q, err := SafePrimes(rand.Reader, pl, bits)
	require.NoError(t, err)
	require.Equal(t, saferith.Choice(0), p.Eq(q))

	for _, prime := range []*saferith.Nat{p, q} {
		pBig := prime.Big()
		assert.Equal(t, bits, pBig.BitLen())
		assert.True(t, pBig.ProbablyPrime(primalityIterations))
		qBig := new(big.Int).Rsh(pBig, 1)
		assert.True(t, qBig.ProbablyPrime(primalityIterations))
	}
}

func TestSafePrimesRejectsTinySizes(t *testing.T) {
	_, _, err := SafePrimes(rand.Reader, nil, 8)
	assert.Error(t, err)
}
