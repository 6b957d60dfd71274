// nullifier.go - Double-spend markers.
//
// A nullifier is derived from the one-time spending scalar sk_r and the
// note's tree index, never from the note's commitment or hash, so it can
// only be computed by whoever can actually spend the note.

package phoenix

// Nullifier is a Scalar used as a unique, one-way marker for a spent note.
type Nullifier = Scalar

// DeriveNullifier computes Sponge(skR, idx).
func DeriveNullifier(skR Scalar, idx uint64) Nullifier {
	var i Scalar
	i.SetUint64(idx)
	return Sponge(skR, i)
}
