package ecc

import (
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/stevebriskin/private-join-and-compute/pkg/hash"
)

const hashToPointDomain = "PJC-SECP256K1-HASH-TO-POINT"

// Each candidate has probability ~1/2 of landing on the curve, so running
// out of candidates means the hash stream is broken.
const maxHashToPointCandidates = 255

var (
	ErrEmptyMessage         = errors.New("ecc: cannot hash an empty message to the curve")
	ErrHashToPointExhausted = errors.New("ecc: exhausted hash-to-point candidates")
)

// HashToPoint deterministically maps msg to a point of the secp256k1 group.
//
// The map draws 32-byte x-coordinate candidates from a domain-separated
// BLAKE3 XOF seeded with msg, and accepts the first candidate that is a
// valid field element with a square y² = x³ + 7, taking the even square
// root. Successive candidates come from the same stream, so the result is a
// pure function of msg.
func HashToPoint(msg []byte) (*Point, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}
	h := hash.New()
	if err := h.WriteAny(hash.BytesWithDomain{TheDomain: hashToPointDomain, Bytes: msg}); err != nil {
		return nil, errors.WithMessage(err, "ecc: hash-to-point")
	}
	digest := h.Digest()

	var candidate [32]byte
	for i := 0; i < maxHashToPointCandidates; i++ {
		if _, err := io.ReadFull(digest, candidate[:]); err != nil {
			return nil, errors.WithMessage(err, "ecc: hash stream failure")
		}
		var p Point
		if overflow := p.x.SetByteSlice(candidate[:]); overflow {
			continue
		}
		if !secp256k1.DecompressY(&p.x, false, &p.y) {
			continue
		}
		p.y.Normalize()
		return &p, nil
	}
	return nil, ErrHashToPointExhausted
}
