// circuit.go - The composite constraint system proved and verified for
// every transaction.
//
// One circuit instance covers the whole transaction: a fee, up to MaxInput
// inputs and MaxOutput outputs, and a constant-shape crossover slot that is
// simply zeroed when a transaction carries none. Per input the circuit
// reconstructs the commitment, binds it into the note's hash, recomputes
// the Merkle path to the claimed root, checks ownership by re-deriving
// sk_r/pk_r on the key curve, and recomputes the nullifier. Per output it
// reconstructs the commitment and binds the public pk_r.x to the output's
// stealth key. A single running balance accumulator
// ties every value together: sum(inputs) - sum(outputs) - fee - crossover
// == 0.
//
// Public inputs are ordered: fee commitment; per input, (merkle root,
// nullifier); per output, (value commitment, pk_r.x); then the crossover
// commitment. This fixed order is what both Prove and Verify reconstruct
// independently from a transaction's note-side data, never from the
// witness, so a verifier can check a proof without trusting the prover's
// bookkeeping.

package phoenix

import (
	"math/big"

	tedwardsnative "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	tedwardsid "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/rangecheck"
)

var curveBaseX, curveBaseY big.Int

func init() {
	base := tedwardsnative.GetEdwardsCurve().Base
	base.X.BigInt(&curveBaseX)
	base.Y.BigInt(&curveBaseY)
}

// merkleWitness is one level of an in-circuit Merkle opening: a one-hot
// selector (asserted boolean, summing to one) and the four sibling slots it
// selects among.
type merkleWitness struct {
	Selector [TreeArity]frontend.Variable
	Siblings [TreeArity]frontend.Variable
}

// inputWitness carries everything the circuit needs to check one spent
// note: its value and blinding factor, its tree index and opening, the
// stealth-address material proving ownership, and the claimed nullifier.
type inputWitness struct {
	Value    frontend.Variable
	Blinding frontend.Variable
	Idx      frontend.Variable

	RG  twistededwards.Point
	PkR twistededwards.Point

	SkA frontend.Variable
	SkB frontend.Variable

	Merkle [TreeHeight]merkleWitness
}

// outputWitness carries the value, blinding factor and recipient stealth
// key of one freshly created note.
type outputWitness struct {
	Value    frontend.Variable
	Blinding frontend.Variable
	PkR      twistededwards.Point
}

// Circuit is the public/private witness shape for one transaction.
type Circuit struct {
	// Public.
	FeeCommitment   frontend.Variable              `gnark:",public"`
	InputRoot       [MaxInput]frontend.Variable    `gnark:",public"`
	InputNull       [MaxInput]frontend.Variable    `gnark:",public"`
	OutputCommit    [MaxOutput]frontend.Variable   `gnark:",public"`
	OutputPkRX      [MaxOutput]frontend.Variable   `gnark:",public"`
	CrossoverCommit frontend.Variable              `gnark:",public"`

	// Private.
	FeeValue    frontend.Variable
	FeeBlinding frontend.Variable

	// InputActive marks which input slots carry a real spend; unused slots
	// (a transaction using fewer than MaxInput inputs) are filled with a
	// harmless, structurally valid placeholder and excluded from every
	// check gated below, so the circuit's shape never depends on how many
	// inputs a given transaction actually spends.
	InputActive [MaxInput]frontend.Variable

	// OutputActive plays the same role as InputActive, for transactions
	// that mint fewer than MaxOutput fresh notes.
	OutputActive [MaxOutput]frontend.Variable

	Inputs  [MaxInput]inputWitness
	Outputs [MaxOutput]outputWitness

	HasCrossover     frontend.Variable
	CrossoverValue   frontend.Variable
	CrossoverBlinding frontend.Variable
}

// mimcSponge absorbs every variable in in and returns the single digest,
// matching Sponge's out-of-circuit behavior bit for bit.
func mimcSponge(api frontend.API, in ...frontend.Variable) frontend.Variable {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		panic(err)
	}
	h.Write(in...)
	return h.Sum()
}

// merkleLevelHash asserts the selector is a valid one-hot vector, substitutes
// current into the sibling row at the selected slot - exactly mirroring
// MerkleLevel.nodeHash's children[ChildIndex] = current out of circuit - and
// returns the parent hash.
func merkleLevelHash(api frontend.API, lvl merkleWitness, current frontend.Variable) frontend.Variable {
	sum := frontend.Variable(0)
	for i := 0; i < TreeArity; i++ {
		api.AssertIsBoolean(lvl.Selector[i])
		sum = api.Add(sum, lvl.Selector[i])
	}
	api.AssertIsEqual(sum, 1)

	in := make([]frontend.Variable, 0, 2*TreeArity)
	for i := 0; i < TreeArity; i++ {
		in = append(in, lvl.Selector[i])
	}
	for i := 0; i < TreeArity; i++ {
		notSelected := api.Sub(1, lvl.Selector[i])
		child := api.Add(api.Mul(notSelected, lvl.Siblings[i]), api.Mul(lvl.Selector[i], current))
		in = append(in, child)
	}
	return mimcSponge(api, in...)
}

// Define builds the constraint system.
func (c *Circuit) Define(api frontend.API) error {
	curve, err := twistededwards.NewEdCurve(api, tedwardsid.BN254)
	if err != nil {
		return err
	}
	rc := rangecheck.New(api)

	base := twistededwards.Point{X: curveBaseX, Y: curveBaseY}

	rc.Check(c.FeeValue, 64)
	api.AssertIsEqual(c.FeeCommitment, mimcSponge(api, c.FeeValue, c.FeeBlinding))

	inSum := frontend.Variable(0)
	for i := 0; i < MaxInput; i++ {
		in := c.Inputs[i]
		active := c.InputActive[i]
		api.AssertIsBoolean(active)

		rc.Check(in.Value, 64)
		inSum = api.Add(inSum, api.Mul(active, in.Value))

		commitment := mimcSponge(api, in.Value, in.Blinding)
		noteHash := mimcSponge(api, commitment, in.Idx, in.PkR.X, in.PkR.Y)

		root := noteHash
		for lvl := 0; lvl < TreeHeight; lvl++ {
			root = merkleLevelHash(api, in.Merkle[lvl], root)
		}
		api.AssertIsEqual(api.Mul(active, api.Sub(root, c.InputRoot[i])), 0)

		curve.AssertIsOnCurve(in.RG)
		aR := curve.ScalarMul(in.RG, in.SkA)
		hs := mimcSponge(api, aR.X)
		hsG := curve.ScalarMul(base, hs)
		bG := curve.ScalarMul(base, in.SkB)
		pkRPrime := curve.Add(hsG, bG)
		curve.AssertIsOnCurve(pkRPrime)
		api.AssertIsEqual(api.Mul(active, api.Sub(pkRPrime.X, in.PkR.X)), 0)
		api.AssertIsEqual(api.Mul(active, api.Sub(pkRPrime.Y, in.PkR.Y)), 0)

		skRPrime := api.Add(hs, in.SkB)
		nullifier := mimcSponge(api, skRPrime, in.Idx)
		api.AssertIsEqual(api.Mul(active, api.Sub(nullifier, c.InputNull[i])), 0)
	}

	outSum := c.FeeValue
	for i := 0; i < MaxOutput; i++ {
		out := c.Outputs[i]
		active := c.OutputActive[i]
		api.AssertIsBoolean(active)

		rc.Check(out.Value, 64)
		outSum = api.Add(outSum, api.Mul(active, out.Value))

		commitment := mimcSponge(api, out.Value, out.Blinding)
		api.AssertIsEqual(api.Mul(active, api.Sub(c.OutputCommit[i], commitment)), 0)
		api.AssertIsEqual(api.Mul(active, api.Sub(c.OutputPkRX[i], out.PkR.X)), 0)
	}

	api.AssertIsBoolean(c.HasCrossover)
	crossoverValue := api.Mul(c.HasCrossover, c.CrossoverValue)
	rc.Check(c.CrossoverValue, 64)
	outSum = api.Add(outSum, crossoverValue)

	crossoverCommitment := mimcSponge(api, c.CrossoverValue, c.CrossoverBlinding)
	expectedCrossoverCommit := api.Mul(c.HasCrossover, crossoverCommitment)
	api.AssertIsEqual(api.Mul(c.HasCrossover, c.CrossoverCommit), expectedCrossoverCommit)

	api.AssertIsEqual(inSum, outSum)
	return nil
}
