// keys.go - Secret, public and view key material, and stealth address
// derivation.
//
// A secret key is a pair of scalars (a, b) on the key curve. The public key
// publishes a*G and b*G. A sender draws a random scalar r, publishes r*G
// alongside the note, and derives a one-time stealth public key
// pk_r = H_s(r*a_g)*G + b_g that only the holder of a and b can recognize
// and later spend from. The view key (a, b_g) lets a watcher recognize and
// read notes without being able to spend them.

package phoenix

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SecretKey is the full spending key: (a, b).
type SecretKey struct {
	A Scalar
	B Scalar
}

// PublicKey is the public counterpart (a*G, b*G).
type PublicKey struct {
	AG Point
	BG Point
}

// ViewKey lets its holder recognize notes and read obfuscated values without
// being able to spend them.
type ViewKey struct {
	A  Scalar
	BG Point
}

// clampedScalarFrom reduces 32 raw bytes, clamped, into a Scalar.
func clampedScalarFrom(b [32]byte) Scalar {
	ClampScalarBytes(&b)
	return bytesToScalar(b[:])
}

// SecretKeyFromSeed deterministically derives a secret key from a seed via a
// SHA-512 digest expanded through HKDF, drawing two independent clamped
// 32-byte scalars.
func SecretKeyFromSeed(seed []byte) SecretKey {
	digest := sha512.Sum512(seed)
	kdf := hkdf.New(sha512.New, digest[:], nil, []byte("phoenix/secret-key"))

	var araw, braw [32]byte
	if _, err := io.ReadFull(kdf, araw[:]); err != nil {
		panic("phoenix: hkdf expansion failed: " + err.Error())
	}
	if _, err := io.ReadFull(kdf, braw[:]); err != nil {
		panic("phoenix: hkdf expansion failed: " + err.Error())
	}

	return SecretKey{
		A: clampedScalarFrom(araw),
		B: clampedScalarFrom(braw),
	}
}

// NewSecretKey draws a fresh random secret key.
func NewSecretKey() SecretKey {
	return SecretKeyFromSeed(RandomBytes(32))
}

// PublicKey derives the public key for sk.
func (sk SecretKey) PublicKey() PublicKey {
	base := basepoint()
	var ag, bg Point
	ag.ScalarMultiplication(&base, scalarBigInt(sk.A))
	bg.ScalarMultiplication(&base, scalarBigInt(sk.B))
	return PublicKey{AG: ag, BG: bg}
}

// ViewKey derives the view key for sk.
func (sk SecretKey) ViewKey() ViewKey {
	base := basepoint()
	var bg Point
	bg.ScalarMultiplication(&base, scalarBigInt(sk.B))
	return ViewKey{A: sk.A, BG: bg}
}

// StealthOutput draws a fresh random scalar r and derives the one-time
// address (r*G, pk_r) a sender attaches to a new note paying pk.
func StealthOutput(pk PublicKey) (rG Point, pkR Point, r Scalar) {
	r = RandomScalar()
	base := basepoint()
	rG.ScalarMultiplication(&base, scalarBigInt(r))

	var shared Point
	shared.ScalarMultiplication(&pk.AG, scalarBigInt(r))
	hs := HashScalar(pointToScalar(shared))

	var hsG Point
	hsG.ScalarMultiplication(&base, scalarBigInt(hs))
	pkR.Add(&hsG, &pk.BG)
	return rG, pkR, r
}

// SkR recovers the one-time spending scalar sk_r for a note addressed to
// rG, given the owning secret key. sk_r*G == pk_r by commutativity of
// scalar multiplication: a*r*G == r*a*G.
func SkR(sk SecretKey, rG Point) Scalar {
	var shared Point
	shared.ScalarMultiplication(&rG, scalarBigInt(sk.A))
	hs := HashScalar(pointToScalar(shared))
	return hs.Add(&hs, &sk.B)
}

// IsOwnedBy reports whether the stealth address (rG, pkR) was derived
// against vk: it recomputes pk_r from rG using the view key's a and compares
// against the claimed pkR.
func (vk ViewKey) IsOwnedBy(rG, pkR Point) bool {
	var shared Point
	shared.ScalarMultiplication(&rG, scalarBigInt(vk.A))
	hs := HashScalar(pointToScalar(shared))

	base := basepoint()
	var hsG, want Point
	hsG.ScalarMultiplication(&base, scalarBigInt(hs))
	want.Add(&hsG, &vk.BG)
	return want.X.Equal(&pkR.X) && want.Y.Equal(&pkR.Y)
}

// sharedSecret recomputes the DH point r*a_g == a*r_g shared between sender
// and the note's owner, as seen from the owner's side.
func (vk ViewKey) sharedSecret(rG Point) Point {
	var shared Point
	shared.ScalarMultiplication(&rG, scalarBigInt(vk.A))
	return shared
}

// String hex-encodes a public key as ag(32) || bg(32).
func (pk PublicKey) String() string {
	ag := PointToBytes(pk.AG)
	bg := PointToBytes(pk.BG)
	return hex.EncodeToString(append(ag[:], bg[:]...))
}

// PublicKeyFromHex parses a public key in the format produced by String.
func PublicKeyFromHex(s string) (PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, errors.Join(ErrInvalidPoint, err)
	}
	if len(raw) != 64 {
		return PublicKey{}, ErrInvalidPoint
	}
	ag, err := PointFromBytes(raw[:32])
	if err != nil {
		return PublicKey{}, err
	}
	bg, err := PointFromBytes(raw[32:])
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{AG: ag, BG: bg}, nil
}

// String hex-encodes a secret key as a(32) || b(32).
func (sk SecretKey) String() string {
	a := ScalarToBytes(sk.A)
	b := ScalarToBytes(sk.B)
	return hex.EncodeToString(append(a[:], b[:]...))
}

// SecretKeyFromHex parses a secret key in the format produced by String.
func SecretKeyFromHex(s string) (SecretKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return SecretKey{}, errors.Join(ErrInvalidScalar, err)
	}
	if len(raw) != 64 {
		return SecretKey{}, ErrInvalidScalar
	}
	a, err := ScalarFromBytes(raw[:32])
	if err != nil {
		return SecretKey{}, err
	}
	b, err := ScalarFromBytes(raw[32:])
	if err != nil {
		return SecretKey{}, err
	}
	return SecretKey{A: a, B: b}, nil
}
