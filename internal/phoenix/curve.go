// curve.go - Field, group, and serialization primitives.
//
// Two curves exist per the design: the "value curve", whose scalar field
// bn254.fr underlies the sponge, the commitment, and every public input; and
// the "key curve", BN254's own embedded twisted-Edwards curve, used for
// stealth addresses. The key curve's base field is exactly bn254.fr, so the
// sponge operates natively over the key curve's scalar field as required,
// and the x-coordinate projection between the two (needed at every stealth
// derivation, ownership test, and sponge-input call site) is simply reading
// the X coordinate - fixed once here, never re-derived elsewhere.

package phoenix

import (
	"bytes"
	"crypto/rand"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
)

// Scalar is an element of the value curve's scalar field.
type Scalar = fr.Element

// Point is a point on the key curve.
type Point = tedwards.PointAffine

// basepoint returns the key curve's generator G.
func basepoint() Point {
	return tedwards.GetEdwardsCurve().Base
}

// pointToScalar is the one, fixed x-coordinate projection required by every
// call site that feeds a Point into the sponge.
func pointToScalar(p Point) Scalar {
	return p.X
}

// RandomScalar draws a uniform scalar using crypto/rand.
func RandomScalar() Scalar {
	var s Scalar
	if _, err := s.SetRandom(); err != nil {
		panic("phoenix: random scalar generation failed: " + err.Error())
	}
	return s
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("phoenix: random bytes generation failed: " + err.Error())
	}
	return b
}

// ScalarToBytes serializes a Scalar as 32 little-endian bytes.
func ScalarToBytes(s Scalar) [32]byte {
	be := s.Bytes()
	var le [32]byte
	for i, b := range be {
		le[31-i] = b
	}
	return le
}

// ScalarFromBytes parses 32 little-endian bytes into a canonical Scalar,
// rejecting any encoding that does not round-trip (a non-canonical, reduced
// representation of the same residue).
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return Scalar{}, ErrInvalidScalar
	}
	be := make([]byte, 32)
	for i, v := range b {
		be[31-i] = v
	}
	var s Scalar
	s.SetBytes(be)
	if !bytes.Equal(s.Bytes()[:], be) {
		return Scalar{}, ErrInvalidScalar
	}
	return s, nil
}

// bytesToScalar reduces an arbitrary-length byte string into a Scalar. Unlike
// ScalarFromBytes it never rejects input - it is used internally to fold
// variable-length ciphertexts into a single sponge input, not to parse a
// canonical wire value.
func bytesToScalar(b []byte) Scalar {
	var s Scalar
	s.SetBytes(b)
	return s
}

// PointToBytes serializes a Point in compressed form.
func PointToBytes(p Point) [32]byte {
	return p.Bytes()
}

// PointFromBytes parses a compressed point, rejecting encodings that do not
// describe a point on the curve.
func PointFromBytes(b []byte) (Point, error) {
	if len(b) != 32 {
		return Point{}, ErrInvalidPoint
	}
	var p Point
	var buf [32]byte
	copy(buf[:], b)
	if _, err := p.SetBytes(buf[:]); err != nil {
		return Point{}, ErrInvalidPoint
	}
	return p, nil
}

// ClampScalarBytes applies X25519/Ed25519-style clamping to 32 raw bytes
// before they are interpreted as a scalar: clear the low three bits of byte
// 0, clear the top bit of byte 31, and set bit 6 of byte 31.
func ClampScalarBytes(b *[32]byte) {
	b[0] &= 0xF8
	b[31] &= 0x7F
	b[31] |= 0x40
}

// scalarBigInt is a small convenience around fr.Element.BigInt, used at every
// circuit-witness boundary where gnark wants a *big.Int.
func scalarBigInt(s Scalar) *big.Int {
	return s.BigInt(new(big.Int))
}
