// note.go - Notes: the confidential unspent-output unit.
//
// A note carries a value behind a Pedersen-free hash commitment, is
// addressed to a one-time stealth public key, and (for obfuscated notes)
// carries its value and blinding factor only as ciphertext recoverable by
// the view key holder. Transparent notes skip the value ciphertext (they
// still carry an encrypted blinding factor) and carry their value in the
// clear, for the cases (fees, public withdrawals) where hiding the amount
// serves no purpose.

package phoenix

import "golang.org/x/crypto/chacha20poly1305"

// NoteKind distinguishes a note whose value is public from one whose value
// is hidden behind encryption.
type NoteKind int

const (
	KindTransparent NoteKind = iota
	KindObfuscated
)

// Note is a confidential unspent output. Idx is the note's position once it
// has been appended to a tree; a note not yet stored carries Idx == 0 and
// must not be treated as spendable until assigned one by a NoteStorage.
type Note struct {
	Kind       NoteKind
	Idx        uint64
	RG         Point
	PkR        Point
	Commitment Scalar
	Nonce      [24]byte

	EncryptedBlinding []byte
	EncryptedValue    []byte // empty for KindTransparent
	ClearValue        uint64 // meaningful only for KindTransparent
}

// Output builds a new note paying pk, returning the note and the blinding
// factor used for its commitment (the caller typically needs the blinding
// factor immediately to build a TransactionItem for spending or change).
func Output(kind NoteKind, pk PublicKey, value uint64) (Note, Scalar) {
	rG, pkR, r := StealthOutput(pk)

	var shared Point
	shared.ScalarMultiplication(&pk.AG, scalarBigInt(r))

	var nonce [24]byte
	copy(nonce[:], RandomBytes(24))

	blinding := RandomScalar()
	blindingBytes := ScalarToBytes(blinding)
	encBlinding, err := seal(shared, incrementNonceLE(nonce), blindingBytes[:])
	if err != nil {
		panic("phoenix: sealing blinding factor failed: " + err.Error())
	}

	n := Note{
		Kind:              kind,
		RG:                rG,
		PkR:               pkR,
		Commitment:        Commitment(value, blinding),
		Nonce:             nonce,
		EncryptedBlinding: encBlinding,
	}

	switch kind {
	case KindTransparent:
		n.ClearValue = value
	case KindObfuscated:
		var vbuf [8]byte
		putUint64LE(vbuf[:], value)
		encValue, err := seal(shared, nonce, vbuf[:])
		if err != nil {
			panic("phoenix: sealing value failed: " + err.Error())
		}
		n.EncryptedValue = encValue
	default:
		panic("unreachable note kind")
	}

	return n, blinding
}

// sharedSecret recomputes the DH point between this note's ephemeral key
// and vk, from the note owner's side.
func (n Note) sharedSecret(vk ViewKey) Point {
	return vk.sharedSecret(n.RG)
}

// BlindingFactor recovers the note's blinding factor under vk. Failure to
// authenticate (vk does not own the note) surfaces only indirectly, via the
// recomputed commitment failing to match n.Commitment downstream.
func (n Note) BlindingFactor(vk ViewKey) Scalar {
	shared := n.sharedSecret(vk)
	raw := open(shared, incrementNonceLE(n.Nonce), n.EncryptedBlinding)
	return bytesToScalar(raw)
}

// Value recovers the note's value. Transparent notes ignore vk entirely. A
// nil vk on an obfuscated note is a programmer error - there is no value to
// return - and panics; a non-nil vk that does not own the note returns 0
// rather than an error, since a failed decryption is indistinguishable from
// a successful one that happens to read out zero.
func (n Note) Value(vk *ViewKey) uint64 {
	if n.Kind == KindTransparent {
		return n.ClearValue
	}
	if vk == nil {
		panic("phoenix: Value of an obfuscated note requires a view key")
	}
	key := sharedSecretKey(n.sharedSecret(*vk))
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return 0
	}
	raw, err := aead.Open(nil, n.Nonce[:chacha20poly1305.NonceSize], n.EncryptedValue, nil)
	if err != nil || len(raw) != 8 {
		return 0
	}
	return getUint64LE(raw)
}

// IsOwnedBy reports whether vk can recognize this note's stealth address.
func (n Note) IsOwnedBy(vk ViewKey) bool {
	return vk.IsOwnedBy(n.RG, n.PkR)
}

// Hash computes the note's commitment-binding digest used both as the
// Merkle tree leaf and as the in-circuit preimage target:
// Sponge(commitment, idx, pk_r.x, pk_r.y). The circuit's Define recomputes
// this exact formula from its witness, so it must never drift from what
// gets appended to the tree here.
func (n Note) Hash() Scalar {
	var idx Scalar
	idx.SetUint64(n.Idx)
	return Sponge(n.Commitment, idx, n.PkR.X, n.PkR.Y)
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

func getUint64LE(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}
