// prover.go - Groth16 setup, proving and verification over the BN254 curve.
//
// The constraint system and proving/verifying keys are process-wide and
// built exactly once: Setup compiles the circuit and either loads an
// existing key pair from disk or runs the trusted setup and persists the
// result. Prove and Verify both read the setup through an atomic pointer
// and panic if called before Setup has completed - there is no lazy,
// implicit initialization on first use.

package phoenix

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	glog "github.com/consensys/gnark/logger"
)

// SetupParams bundles the compiled constraint system with its Groth16 key
// pair.
type SetupParams struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

var (
	globalSetup   atomic.Pointer[SetupParams]
	globalSetupMu sync.Mutex
)

// Setup compiles the circuit and loads or generates its Groth16 key pair.
// If pkPath and vkPath both exist they are loaded; otherwise a fresh trusted
// setup is run and written to those paths. The result becomes the
// process-wide setup used by Prove and Verify.
func Setup(pkPath, vkPath string) (*SetupParams, error) {
	globalSetupMu.Lock()
	defer globalSetupMu.Unlock()

	log := glog.Logger()
	log.Info().Msg("phoenix: compiling circuit")

	var circuit Circuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("phoenix: compile circuit: %w", err)
	}

	pk, vk, err := setupOrLoadKeys(ccs, pkPath, vkPath)
	if err != nil {
		return nil, err
	}

	params := &SetupParams{ccs: ccs, pk: pk, vk: vk}
	globalSetup.Store(params)
	log.Info().Msg("phoenix: setup complete")
	return params, nil
}

func setupOrLoadKeys(ccs constraint.ConstraintSystem, pkPath, vkPath string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	if pkPath != "" && vkPath != "" {
		if _, err := os.Stat(pkPath); err == nil {
			if _, err := os.Stat(vkPath); err == nil {
				return loadKeys(pkPath, vkPath)
			}
		}
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("phoenix: trusted setup: %w", err)
	}

	if pkPath != "" && vkPath != "" {
		if err := saveKeys(pk, vk, pkPath, vkPath); err != nil {
			return nil, nil, err
		}
	}
	return pk, vk, nil
}

func loadKeys(pkPath, vkPath string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pk := groth16.NewProvingKey(ecc.BN254)
	vk := groth16.NewVerifyingKey(ecc.BN254)

	pkFile, err := os.Open(pkPath)
	if err != nil {
		return nil, nil, fmt.Errorf("phoenix: open proving key: %w", err)
	}
	defer pkFile.Close()
	if _, err := pk.ReadFrom(pkFile); err != nil {
		return nil, nil, fmt.Errorf("phoenix: read proving key: %w", err)
	}

	vkFile, err := os.Open(vkPath)
	if err != nil {
		return nil, nil, fmt.Errorf("phoenix: open verifying key: %w", err)
	}
	defer vkFile.Close()
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return nil, nil, fmt.Errorf("phoenix: read verifying key: %w", err)
	}

	return pk, vk, nil
}

func saveKeys(pk groth16.ProvingKey, vk groth16.VerifyingKey, pkPath, vkPath string) error {
	pkFile, err := os.Create(pkPath)
	if err != nil {
		return fmt.Errorf("phoenix: create proving key: %w", err)
	}
	defer pkFile.Close()
	if _, err := pk.WriteTo(pkFile); err != nil {
		return fmt.Errorf("phoenix: write proving key: %w", err)
	}

	vkFile, err := os.Create(vkPath)
	if err != nil {
		return fmt.Errorf("phoenix: create verifying key: %w", err)
	}
	defer vkFile.Close()
	if _, err := vk.WriteTo(vkFile); err != nil {
		return fmt.Errorf("phoenix: write verifying key: %w", err)
	}
	return nil
}

func currentSetup() *SetupParams {
	s := globalSetup.Load()
	if s == nil {
		panic("phoenix: Prove/Verify called before Setup completed")
	}
	return s
}

// Prove builds a full witness for tx against storage's Merkle openings,
// runs Groth16 proving, and fills in tx.Proof and tx.PublicInput. It
// re-fetches each input's opening from storage rather than trusting
// whatever was attached when the input was assembled, so a note that has
// moved in the tree since ToTransactionInput was called still proves
// against the current root.
func Prove(ctx context.Context, tx *Transaction, storage MerkleProofProvider) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(tx.Inputs) == 0 || len(tx.Inputs) > MaxInput {
		return fmt.Errorf("%w: transaction must have between 1 and %d inputs", ErrTooManyItems, MaxInput)
	}
	if len(tx.Outputs) > MaxOutput {
		return ErrTooManyItems
	}

	for i, in := range tx.Inputs {
		opening, err := storage.MerkleOpening(ctx, in.Note.Idx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
		tx.Inputs[i].Opening = opening
	}

	if err := tx.BalanceCheck(); err != nil {
		return err
	}

	setup := currentSetup()
	log := glog.Logger()

	assignment, publicInput, err := buildAssignment(tx)
	if err != nil {
		return err
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	log.Info().Msg("phoenix: proving transaction")
	proof, err := groth16.Prove(setup.ccs, setup.pk, w)
	if err != nil {
		log.Error().Err(err).Msg("phoenix: proving failed")
		return fmt.Errorf("%w: %w", ErrProofInvalid, err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return fmt.Errorf("phoenix: serialize proof: %w", err)
	}

	tx.Proof = buf.Bytes()
	tx.PublicInput = publicInput
	return nil
}

// Verify checks tx's proof against public inputs reconstructed purely from
// the transaction's note-side data, never from the prover's own witness.
func Verify(ctx context.Context, tx *Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	setup := currentSetup()
	log := glog.Logger()

	wantPublicInput, err := reconstructPublicInputs(tx)
	if err != nil {
		return err
	}
	if len(wantPublicInput) != len(tx.PublicInput) {
		return fmt.Errorf("%w: public input length mismatch", ErrProofInvalid)
	}
	for i := range wantPublicInput {
		if !wantPublicInput[i].Equal(&tx.PublicInput[i]) {
			return fmt.Errorf("%w: public input mismatch at index %d", ErrProofInvalid, i)
		}
	}

	assignment, err := publicAssignment(tx)
	if err != nil {
		return err
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(tx.Proof)); err != nil {
		return fmt.Errorf("%w: %w", ErrProofInvalid, err)
	}

	if err := groth16.Verify(proof, setup.vk, w); err != nil {
		log.Error().Err(err).Msg("phoenix: verification failed")
		return fmt.Errorf("%w: %w", ErrProofInvalid, err)
	}
	return nil
}
