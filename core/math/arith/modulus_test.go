package arith

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
)

func TestExpWithFactorizationMatchesPlain(t *testing.T) {
	p := new(saferith.Nat).SetUint64(1019)
	q := new(saferith.Nat).SetUint64(1187)

	fast := ModulusFromFactors(p, q)
	plain := ModulusFromN(fast.Modulus)

	cases := []struct{ x, e uint64 }{
		{2, 3},
		{17, 1},
		{1208552, 65537},
		{999983, 2},
		{3, 1207348},
		{1209552, 1209552},
	}
	for _, tc := range cases {
		x := new(saferith.Nat).SetUint64(tc.x)
		e := new(saferith.Nat).SetUint64(tc.e)
		got := fast.Exp(x, e)
		want := plain.Exp(x, e)
		assert.Equal(t, saferith.Choice(1), got.Eq(want), "x=%d e=%d", tc.x, tc.e)
	}
}

func TestModulusFromBytesRoundTrip(t *testing.T) {
	n := new(saferith.Nat).SetUint64(1019 * 1187)
	m := ModulusFromN(saferith.ModulusFromNat(n))
	again := ModulusFromBytes(m.Bytes())
	assert.Equal(t, m.Bytes(), again.Bytes())
}
