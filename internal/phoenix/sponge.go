// sponge.go - The algebraic sponge hash.
//
// Sponge stands in for the Hades/Poseidon permutation family the design
// calls for: MiMC absorbs every scalar in turn through a single hash
// instance and extracts one scalar output. This is MiMC's native
// multi-input hashing mode, and gnark's std/hash/mimc gadget reproduces it
// bit-identically in-circuit (see circuit.go's mimcSponge), satisfying the
// hard in-circuit/out-of-circuit identity requirement.

package phoenix

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Sponge absorbs every scalar in in, in order, and returns the single
// resulting digest reduced to a Scalar.
func Sponge(in ...Scalar) Scalar {
	h := mimc.NewMiMC()
	for _, s := range in {
		b := s.Bytes()
		h.Write(b[:])
	}
	return bytesToScalar(h.Sum(nil))
}

// HashScalar is the single-permutation application of Sponge to one input.
func HashScalar(s Scalar) Scalar {
	return Sponge(s)
}
