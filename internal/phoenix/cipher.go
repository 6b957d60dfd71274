// cipher.go - The Diffie-Hellman-keyed authenticated symmetric cipher.
//
// The encryption key is DH(r, a_g) = r*a_g, projected to a 32-byte symmetric
// key by hashing its x-coordinate through the sponge (whitening a raw curve
// coordinate before it is used as an AEAD key). golang.org/x/crypto's
// chacha20poly1305 is the AEAD primitive, already present in the teacher's
// dependency graph (transitively, via golang.org/x/crypto) and used directly
// for AEAD sealing elsewhere in the retrieved pack.
//
// Decryption failure MUST be indistinguishable from success at the type
// level: open never returns an error. On an authentication failure it
// returns deterministic, sponge-derived filler bytes of the same length
// instead, so a caller cannot distinguish "wrong key" from "right key, note
// happens to decrypt to this" without a downstream commitment or balance
// check. This removes the decryption-oracle side channel the design
// explicitly calls out.

package phoenix

import (
	"golang.org/x/crypto/chacha20poly1305"
)

// sharedSecretKey whitens a DH shared point into a uniform AEAD key.
func sharedSecretKey(shared Point) [32]byte {
	return ScalarToBytes(HashScalar(pointToScalar(shared)))
}

// seal encrypts plaintext under the DH shared secret. nonce is the note's own
// per-note nonce (or its increment, for the blinding field); only its first
// 12 bytes feed the AEAD, matching chacha20poly1305's nonce size.
func seal(shared Point, nonce [24]byte, plaintext []byte) ([]byte, error) {
	key := sharedSecretKey(shared)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce[:chacha20poly1305.NonceSize], plaintext, nil), nil
}

// open decrypts ciphertext under the DH shared secret, absorbing any
// authentication failure into randomized-looking filler rather than an
// error.
func open(shared Point, nonce [24]byte, ciphertext []byte) []byte {
	key := sharedSecretKey(shared)
	aead, err := chacha20poly1305.New(key[:])
	if err == nil {
		if pt, err := aead.Open(nil, nonce[:chacha20poly1305.NonceSize], ciphertext, nil); err == nil {
			return pt
		}
	}
	n := len(ciphertext) - chacha20poly1305.Overhead
	return fillerBytes(shared, nonce, n)
}

// fillerBytes deterministically derives n bytes of sponge-chained keystream
// from the shared secret and nonce, used as the output of a failed open so
// that the function remains pure and gives no side channel.
func fillerBytes(shared Point, nonce [24]byte, n int) []byte {
	if n < 0 {
		n = 0
	}
	seed := Sponge(pointToScalar(shared), bytesToScalar(nonce[:]))
	out := make([]byte, 0, n+32)
	cur := seed
	for len(out) < n {
		b := ScalarToBytes(cur)
		out = append(out, b[:]...)
		cur = HashScalar(cur)
	}
	return out[:n]
}

// incrementNonceLE returns nonce interpreted as a little-endian counter, plus
// one. The blinding field of a note is always encrypted under this
// incremented nonce so it never reuses the key stream of the value field.
func incrementNonceLE(nonce [24]byte) [24]byte {
	var out [24]byte = nonce
	for i := range out {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}
