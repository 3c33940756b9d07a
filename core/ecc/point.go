// Package ecc implements a commutative cipher over the secp256k1 group:
// messages are hashed to curve points and encrypted by scalar
// multiplication, so that two parties' encryptions commute.
package ecc

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// PointBytesLen is the length of the canonical compressed point encoding.
const PointBytesLen = 33

const (
	pointEncodingEven = 0x02
	pointEncodingOdd  = 0x03
)

var (
	ErrInvalidPointEncoding = errors.New("ecc: invalid point encoding")
	ErrPointNotOnCurve      = errors.New("ecc: point is not on the curve")
)

// Point is an affine point of the secp256k1 group. Coordinates are kept
// normalized, so equal group elements have equal representations.
// The identity element is not representable; it cannot appear in this
// protocol since the group has prime order and all scalars are non-zero.
type Point struct {
	x, y secp256k1.FieldVal
}

// Bytes returns the canonical 33-byte compressed encoding of the point.
func (p *Point) Bytes() []byte {
	b := make([]byte, PointBytesLen)
	b[0] = pointEncodingEven
	if p.y.IsOdd() {
		b[0] = pointEncodingOdd
	}
	p.x.PutBytesUnchecked(b[1:])
	return b
}

// PointFromBytes parses a compressed point encoding, rejecting coordinates
// that are out of range or not on the curve.
func PointFromBytes(b []byte) (*Point, error) {
	if len(b) != PointBytesLen {
		return nil, errors.WithMessagef(ErrInvalidPointEncoding, "got %d bytes", len(b))
	}
	if b[0] != pointEncodingEven && b[0] != pointEncodingOdd {
		return nil, errors.WithMessagef(ErrInvalidPointEncoding, "prefix %#x", b[0])
	}
	var p Point
	if overflow := p.x.SetByteSlice(b[1:]); overflow {
		return nil, errors.WithMessage(ErrInvalidPointEncoding, "x coordinate out of range")
	}
	if !secp256k1.DecompressY(&p.x, b[0] == pointEncodingOdd, &p.y) {
		return nil, ErrPointNotOnCurve
	}
	p.y.Normalize()
	return &p, nil
}

// Equal reports whether two points are the same group element.
func (p *Point) Equal(other *Point) bool {
	return p.x.Equals(&other.x) && p.y.Equals(&other.y)
}

// mul returns k⋅p.
func (p *Point) mul(k *secp256k1.ModNScalar) *Point {
	var jp, prod secp256k1.JacobianPoint
	jp.X.Set(&p.x)
	jp.Y.Set(&p.y)
	jp.Z.SetInt(1)
	secp256k1.ScalarMultNonConst(k, &jp, &prod)
	prod.ToAffine()

	var out Point
	out.x.Set(&prod.X)
	out.y.Set(&prod.Y)
	return &out
}
