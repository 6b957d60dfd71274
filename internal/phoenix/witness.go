// witness.go - Translating a Transaction into the circuit's public and
// private assignment, and reconstructing the public-input vector a verifier
// checks against independently of the prover.

package phoenix

import (
	"fmt"

	"github.com/consensys/gnark/std/algebra/native/twistededwards"
)

func pointVar(p Point) twistededwards.Point {
	return twistededwards.Point{X: scalarBigInt(p.X), Y: scalarBigInt(p.Y)}
}

func merkleWitnessFrom(proof MerkleProof) [TreeHeight]merkleWitness {
	var out [TreeHeight]merkleWitness
	for lvl := 0; lvl < TreeHeight; lvl++ {
		l := proof.Levels[lvl]
		var selector [TreeArity]interface{}
		for i := 0; i < TreeArity; i++ {
			if i == l.ChildIndex {
				selector[i] = 1
			} else {
				selector[i] = 0
			}
		}
		var w merkleWitness
		for i := 0; i < TreeArity; i++ {
			w.Selector[i] = selector[i]
			w.Siblings[i] = scalarBigInt(l.Siblings[i])
		}
		out[lvl] = w
	}
	return out
}

// buildAssignment builds the full (public + private) witness for tx, along
// with the public-input vector the caller should persist alongside the
// proof.
func buildAssignment(tx *Transaction) (*Circuit, []Scalar, error) {
	if len(tx.Inputs) == 0 {
		return nil, nil, fmt.Errorf("%w: transaction has no inputs", ErrInvalidParameters)
	}

	c := &Circuit{}
	var publicInput []Scalar

	c.FeeValue = intVar(tx.Fee.Value)
	c.FeeBlinding = scalarBigInt(tx.Fee.Blinding)
	feeCommitment := Commitment(tx.Fee.Value, tx.Fee.Blinding)
	c.FeeCommitment = scalarBigInt(feeCommitment)
	publicInput = append(publicInput, feeCommitment)

	for i := 0; i < MaxInput; i++ {
		if i < len(tx.Inputs) {
			in := tx.Inputs[i]
			if in.SK == nil {
				return nil, nil, fmt.Errorf("%w: input %d missing secret key", ErrInvalidParameters, i)
			}
			root := in.Opening.Root(in.Note.Hash())

			c.Inputs[i] = inputWitness{
				Value:    intVar(in.Value),
				Blinding: scalarBigInt(in.Blinding),
				Idx:      intVar(in.Note.Idx),
				RG:       pointVar(in.Note.RG),
				PkR:      pointVar(in.Note.PkR),
				SkA:      scalarBigInt(in.SK.A),
				SkB:      scalarBigInt(in.SK.B),
				Merkle:   merkleWitnessFrom(in.Opening),
			}
			c.InputActive[i] = intVar(1)
			c.InputRoot[i] = scalarBigInt(root)
			c.InputNull[i] = scalarBigInt(in.Nullifier)
			publicInput = append(publicInput, root, in.Nullifier)
		} else {
			c.Inputs[i] = emptyInputWitness()
			c.InputActive[i] = intVar(0)
			c.InputRoot[i] = intVar(0)
			c.InputNull[i] = intVar(0)
			publicInput = append(publicInput, Scalar{}, Scalar{})
		}
	}

	for i := 0; i < MaxOutput; i++ {
		if i < len(tx.Outputs) {
			out := tx.Outputs[i]
			c.Outputs[i] = outputWitness{
				Value:    intVar(out.Value),
				Blinding: scalarBigInt(out.Blinding),
				PkR:      pointVar(out.Note.PkR),
			}
			commitment := Commitment(out.Value, out.Blinding)
			c.OutputActive[i] = intVar(1)
			c.OutputCommit[i] = scalarBigInt(commitment)
			c.OutputPkRX[i] = scalarBigInt(pointToScalar(out.Note.PkR))
			publicInput = append(publicInput, commitment, pointToScalar(out.Note.PkR))
		} else {
			c.Outputs[i] = outputWitness{Value: intVar(0), Blinding: intVar(0), PkR: pointVar(basepoint())}
			c.OutputActive[i] = intVar(0)
			c.OutputCommit[i] = intVar(0)
			c.OutputPkRX[i] = intVar(0)
			publicInput = append(publicInput, Scalar{}, Scalar{})
		}
	}

	if tx.HasCrossover {
		c.HasCrossover = intVar(1)
		c.CrossoverValue = intVar(tx.Crossover.Value)
		c.CrossoverBlinding = scalarBigInt(tx.Crossover.Blinding)
		crossoverCommitment := Commitment(tx.Crossover.Value, tx.Crossover.Blinding)
		c.CrossoverCommit = scalarBigInt(crossoverCommitment)
		publicInput = append(publicInput, crossoverCommitment)
	} else {
		c.HasCrossover = intVar(0)
		c.CrossoverValue = intVar(0)
		c.CrossoverBlinding = intVar(0)
		c.CrossoverCommit = intVar(0)
		publicInput = append(publicInput, Scalar{})
	}

	return c, publicInput, nil
}

// publicAssignment builds a Circuit populated only with the public fields
// Verify needs; frontend.PublicOnly() ignores the zero-valued private
// fields left behind.
func publicAssignment(tx *Transaction) (*Circuit, error) {
	want, err := reconstructPublicInputs(tx)
	if err != nil {
		return nil, err
	}

	c := &Circuit{}
	c.FeeCommitment = scalarBigInt(want[0])
	idx := 1
	for i := 0; i < MaxInput; i++ {
		c.InputRoot[i] = scalarBigInt(want[idx])
		c.InputNull[i] = scalarBigInt(want[idx+1])
		idx += 2
	}
	for i := 0; i < MaxOutput; i++ {
		c.OutputCommit[i] = scalarBigInt(want[idx])
		c.OutputPkRX[i] = scalarBigInt(want[idx+1])
		idx += 2
	}
	c.CrossoverCommit = scalarBigInt(want[idx])
	return c, nil
}

// reconstructPublicInputs derives the public-input vector purely from
// tx's note-side data (commitments, roots carried in the Merkle openings,
// nullifiers, pk_r), independent of anything only the prover's witness
// knows.
func reconstructPublicInputs(tx *Transaction) ([]Scalar, error) {
	var out []Scalar
	out = append(out, tx.Fee.Note.Commitment)

	for i := 0; i < MaxInput; i++ {
		if i < len(tx.Inputs) {
			in := tx.Inputs[i]
			root := in.Opening.Root(in.Note.Hash())
			out = append(out, root, in.Nullifier)
		} else {
			out = append(out, Scalar{}, Scalar{})
		}
	}

	for i := 0; i < MaxOutput; i++ {
		if i < len(tx.Outputs) {
			out2 := tx.Outputs[i]
			out = append(out, out2.Note.Commitment, pointToScalar(out2.Note.PkR))
		} else {
			out = append(out, Scalar{}, Scalar{})
		}
	}

	if tx.HasCrossover {
		out = append(out, tx.Crossover.Note.Commitment)
	} else {
		out = append(out, Scalar{})
	}

	return out, nil
}

// emptyMerkleWitness returns a structurally valid (one-hot, boolean) filler
// opening for an inactive input slot. Since the corresponding root check is
// gated by InputActive, its siblings never need to describe a real path.
func emptyMerkleWitness() [TreeHeight]merkleWitness {
	var out [TreeHeight]merkleWitness
	for lvl := 0; lvl < TreeHeight; lvl++ {
		var w merkleWitness
		w.Selector[0] = intVar(1)
		for i := 1; i < TreeArity; i++ {
			w.Selector[i] = intVar(0)
		}
		for i := 0; i < TreeArity; i++ {
			w.Siblings[i] = intVar(0)
		}
		out[lvl] = w
	}
	return out
}

func emptyInputWitness() inputWitness {
	return inputWitness{
		Value:    intVar(0),
		Blinding: intVar(0),
		Idx:      intVar(0),
		RG:       pointVar(basepoint()),
		PkR:      pointVar(basepoint()),
		SkA:      intVar(0),
		SkB:      intVar(0),
		Merkle:   emptyMerkleWitness(),
	}
}

func intVar(v uint64) interface{} {
	return v
}
