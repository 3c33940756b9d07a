package ecc

import (
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// KeyBytesLen is the length of a serialized cipher key.
const KeyBytesLen = 32

var ErrInvalidKeyEncoding = errors.New("ecc: invalid key encoding")

// Cipher encrypts byte strings as curve points under a secret scalar:
// Encrypt(m) = k⋅H(m). Encryption is deterministic and commutative across
// ciphers; there is no decryption.
type Cipher struct {
	key secp256k1.ModNScalar
}

// NewCipher generates a cipher with a fresh uniform scalar in [1, q-1].
func NewCipher(rand io.Reader) (*Cipher, error) {
	priv, err := secp256k1.GeneratePrivateKeyFromRand(rand)
	if err != nil {
		return nil, errors.WithMessage(err, "ecc: key generation failed")
	}
	return &Cipher{key: priv.Key}, nil
}

// CipherFromBytes reconstructs a cipher from a serialized key.
func CipherFromBytes(b []byte) (*Cipher, error) {
	if len(b) != KeyBytesLen {
		return nil, errors.WithMessagef(ErrInvalidKeyEncoding, "got %d bytes", len(b))
	}
	var c Cipher
	if overflow := c.key.SetByteSlice(b); overflow {
		return nil, errors.WithMessage(ErrInvalidKeyEncoding, "scalar out of range")
	}
	if c.key.IsZero() {
		return nil, errors.WithMessage(ErrInvalidKeyEncoding, "scalar is zero")
	}
	return &c, nil
}

// KeyBytes returns the 32-byte big-endian encoding of the secret scalar.
func (c *Cipher) KeyBytes() []byte {
	b := c.key.Bytes()
	return b[:]
}

// Encrypt maps msg to the curve and multiplies by the secret scalar.
func (c *Cipher) Encrypt(msg []byte) (*Point, error) {
	p, err := HashToPoint(msg)
	if err != nil {
		return nil, err
	}
	return p.mul(&c.key), nil
}

// ReEncrypt multiplies an already-encrypted point by the secret scalar.
func (c *Cipher) ReEncrypt(p *Point) *Point {
	return p.mul(&c.key)
}

// Public returns k⋅G. It is used only as a stable handle for the key (for
// key identifiers); it is never transmitted.
func (c *Cipher) Public() *Point {
	var prod secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&c.key, &prod)
	prod.ToAffine()

	var out Point
	out.x.Set(&prod.X)
	out.y.Set(&prod.Y)
	return &out
}
