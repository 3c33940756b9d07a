package paillier

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevebriskin/private-join-and-compute/core/pool"
)

// 1019 and 1187 are safe primes ((p-1)/2 = 509 and 593, both prime).
// Real key sizes are exercised by TestKeyGen; everything else uses this tiny
// key to keep the suite fast.
func testSecretKey() *SecretKey {
	p := new(saferith.Nat).SetUint64(1019)
	q := new(saferith.Nat).SetUint64(1187)
	return NewSecretKeyFromPrimes(p, q)
}

const testN = 1019 * 1187

func TestEncDecRoundTrip(t *testing.T) {
	sk := testSecretKey()
	for _, m := range []uint64{0, 1, 2, 255, 10_000, testN - 1} {
		ct, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(m))
		require.NoError(t, err)
		got, err := sk.Dec(ct)
		require.NoError(t, err)
		assert.Equal(t, saferith.Choice(1), got.Eq(new(saferith.Nat).SetUint64(m)), "m=%d", m)
	}
}

func TestEncRejectsOutOfRange(t *testing.T) {
	sk := testSecretKey()
	for _, m := range []uint64{testN, testN + 1, testN * 2} {
		_, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(m))
		assert.ErrorIs(t, err, ErrPlaintextOutOfRange, "m=%d", m)
	}
	_, err := sk.Enc(rand.Reader, nil)
	assert.Error(t, err)
}

func TestHomomorphicAdd(t *testing.T) {
	sk := testSecretKey()
	cases := []struct{ a, b uint64 }{
		{0, 0},
		{1, 2},
		{10, 20},
		{testN - 2, 1},
	}
	for _, tc := range cases {
		cta, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(tc.a))
		require.NoError(t, err)
		ctb, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(tc.b))
		require.NoError(t, err)
		sum, err := sk.Dec(sk.Add(cta, ctb))
		require.NoError(t, err)
		assert.Equal(t, saferith.Choice(1), sum.Eq(new(saferith.Nat).SetUint64(tc.a+tc.b)), "a=%d b=%d", tc.a, tc.b)
	}
}

func TestRerandomize(t *testing.T) {
	sk := testSecretKey()
	ct, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(77))
	require.NoError(t, err)
	rr := sk.Rerandomize(rand.Reader, ct)

	assert.False(t, ct.Equal(rr))
	m, err := sk.Dec(rr)
	require.NoError(t, err)
	assert.Equal(t, saferith.Choice(1), m.Eq(new(saferith.Nat).SetUint64(77)))
}

func TestFreshNoncesDiffer(t *testing.T) {
	sk := testSecretKey()
	a, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(5))
	require.NoError(t, err)
	b, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(5))
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
}

func TestValidateCiphertexts(t *testing.T) {
	sk := testSecretKey()
	ct, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(9))
	require.NoError(t, err)
	assert.True(t, sk.ValidateCiphertexts(ct))

	nSquared := uint64(testN) * uint64(testN)
	tooBig := &Ciphertext{c: new(saferith.Nat).SetUint64(nSquared)}
	assert.False(t, sk.ValidateCiphertexts(tooBig))
	assert.False(t, sk.ValidateCiphertexts(nil))
	// 1019² divides n², so it is not a unit
	notUnit := &Ciphertext{c: new(saferith.Nat).SetUint64(1019)}
	assert.False(t, sk.ValidateCiphertexts(notUnit))
}

func TestDecOfGarbageIsWellDefined(t *testing.T) {
	sk := testSecretKey()
	garbage := CiphertextFromBytes([]byte{0xde, 0xad, 0xbe, 0xef, 0x01})
	_, err := sk.Dec(garbage)
	assert.NoError(t, err)
	_, err = sk.Dec(nil)
	assert.Error(t, err)
}

func TestCiphertextBytesRoundTrip(t *testing.T) {
	sk := testSecretKey()
	ct, err := sk.Enc(rand.Reader, new(saferith.Nat).SetUint64(1234))
	require.NoError(t, err)
	again := CiphertextFromBytes(ct.Bytes())
	assert.True(t, ct.Equal(again))
	if len(ct.Bytes()) > 0 {
		assert.NotEqual(t, byte(0), ct.Bytes()[0])
	}
}

func TestKeyGenRejectsSmallModulus(t *testing.T) {
	_, err := KeyGen(rand.Reader, nil, 512)
	assert.ErrorIs(t, err, ErrModulusTooSmall)
}

func TestKeyGen(t *testing.T) {
	if testing.Short() {
		t.Skip("safe-prime generation is slow")
	}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	sk, err := KeyGen(rand.Reader, pl, MinModulusBits)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sk.N().BitLen(), MinModulusBits-1)

	m := new(saferith.Nat).SetUint64(1 << 40)
	ct, err := sk.Enc(rand.Reader, m)
	require.NoError(t, err)
	got, err := sk.Dec(ct)
	require.NoError(t, err)
	assert.Equal(t, saferith.Choice(1), got.Eq(m))
}
