package phoenix

import (
	"context"
	"math/big"
	"os"
	"testing"
)

// setupDone ensures the (expensive) trusted setup runs only once across this
// package's tests, mirroring the teacher's pattern of reusing one key pair
// across a whole end-to-end test rather than re-running Groth16 setup per
// scenario.
var setupDone = false

func ensureSetup(t *testing.T) {
	t.Helper()
	if setupDone {
		return
	}
	pk := "test_phoenix.pk"
	vk := "test_phoenix.vk"
	t.Cleanup(func() {
		os.Remove(pk)
		os.Remove(vk)
	})
	if _, err := Setup(pk, vk); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	setupDone = true
}

// buildFundedStorage stores one transparent note of value 100 owned by A at
// index 0, matching scenario S1/S2/S3/S4's fixture.
func buildFundedStorage(t *testing.T) (*MemoryNoteStorage, SecretKey, SecretKey, Note, MerkleProof) {
	t.Helper()
	ctx := context.Background()

	skA := SecretKeyFromSeed([]byte("alice"))
	skB := SecretKeyFromSeed([]byte("bob"))
	pkA := skA.PublicKey()

	storage := NewMemoryNoteStorage()
	note, _ := Output(KindTransparent, pkA, 100)

	idx, err := storage.StoreUnspent(ctx, note)
	if err != nil {
		t.Fatalf("StoreUnspent: %v", err)
	}
	note.Idx = idx

	opening, err := storage.MerkleOpening(ctx, idx)
	if err != nil {
		t.Fatalf("MerkleOpening: %v", err)
	}

	return storage, skA, skB, note, opening
}

// TestS1SimpleTransfer: A spends its 100-value note into 95 to B, 2 back to
// A, and a fee of 3; prove and verify must both succeed.
func TestS1SimpleTransfer(t *testing.T) {
	ensureSetup(t)
	ctx := context.Background()
	storage, skA, skB, note, opening := buildFundedStorage(t)
	pkA := skA.PublicKey()
	pkB := skB.PublicKey()

	input, err := ToTransactionInput(note, skA, opening)
	if err != nil {
		t.Fatalf("ToTransactionInput: %v", err)
	}

	payNote, payBlinding := Output(KindTransparent, pkB, 95)
	changeNote, changeBlinding := Output(KindObfuscated, pkA, 2)
	feeNote, feeBlinding := Output(KindTransparent, pkA, 3)

	tx := NewTransaction()
	if err := tx.PushInput(input); err != nil {
		t.Fatalf("PushInput: %v", err)
	}
	if err := tx.PushOutput(ToTransactionOutput(payNote, 95, payBlinding, pkB)); err != nil {
		t.Fatalf("PushOutput: %v", err)
	}
	if err := tx.PushOutput(ToTransactionOutput(changeNote, 2, changeBlinding, pkA)); err != nil {
		t.Fatalf("PushOutput: %v", err)
	}
	tx.SetFee(ToTransactionOutput(feeNote, 3, feeBlinding, pkA))

	if err := tx.BalanceCheck(); err != nil {
		t.Fatalf("BalanceCheck: %v", err)
	}
	if err := Prove(ctx, tx, storage); err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(ctx, tx); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

// TestS2UnbalancedRejected: outputs sum to 94 instead of 97 (95+2), leaving
// the transaction unbalanced against its claimed 100-value input.
func TestS2UnbalancedRejected(t *testing.T) {
	ensureSetup(t)
	_, skA, skB, note, opening := buildFundedStorage(t)
	pkA := skA.PublicKey()
	pkB := skB.PublicKey()

	input, err := ToTransactionInput(note, skA, opening)
	if err != nil {
		t.Fatalf("ToTransactionInput: %v", err)
	}

	payNote, payBlinding := Output(KindTransparent, pkB, 92)
	changeNote, changeBlinding := Output(KindObfuscated, pkA, 2)
	feeNote, feeBlinding := Output(KindTransparent, pkA, 3)

	tx := NewTransaction()
	if err := tx.PushInput(input); err != nil {
		t.Fatalf("PushInput: %v", err)
	}
	if err := tx.PushOutput(ToTransactionOutput(payNote, 92, payBlinding, pkB)); err != nil {
		t.Fatalf("PushOutput: %v", err)
	}
	if err := tx.PushOutput(ToTransactionOutput(changeNote, 2, changeBlinding, pkA)); err != nil {
		t.Fatalf("PushOutput: %v", err)
	}
	tx.SetFee(ToTransactionOutput(feeNote, 3, feeBlinding, pkA))

	if err := tx.BalanceCheck(); err == nil {
		t.Fatal("expected BalanceCheck to reject an unbalanced transaction")
	}
}

// TestS3DoubleSpendRejected: after a nullifier has been recorded once,
// recording it again must fail.
func TestS3DoubleSpendRejected(t *testing.T) {
	ctx := context.Background()
	storage, skA, _, note, opening := buildFundedStorage(t)

	input, err := ToTransactionInput(note, skA, opening)
	if err != nil {
		t.Fatalf("ToTransactionInput: %v", err)
	}

	if err := storage.InsertNullifier(ctx, input.Nullifier); err != nil {
		t.Fatalf("first InsertNullifier: %v", err)
	}
	if err := storage.InsertNullifier(ctx, input.Nullifier); err == nil {
		t.Fatal("expected the second InsertNullifier of the same nullifier to fail")
	}
}

// TestS4WrongOwnerRejected: binding the input to B's secret key instead of
// A's must fail ownership verification before a proof is ever attempted.
func TestS4WrongOwnerRejected(t *testing.T) {
	_, _, skB, note, opening := buildFundedStorage(t)
	if _, err := ToTransactionInput(note, skB, opening); err == nil {
		t.Fatal("expected ToTransactionInput to reject a non-owning secret key")
	}
}

// TestS5TamperRejected: flipping one byte of a valid proof must make
// verification fail.
func TestS5TamperRejected(t *testing.T) {
	ensureSetup(t)
	ctx := context.Background()
	storage, skA, _, note, opening := buildFundedStorage(t)
	pkA := skA.PublicKey()

	input, err := ToTransactionInput(note, skA, opening)
	if err != nil {
		t.Fatalf("ToTransactionInput: %v", err)
	}

	changeNote, changeBlinding := Output(KindTransparent, pkA, 97)
	feeNote, feeBlinding := Output(KindTransparent, pkA, 3)

	tx := NewTransaction()
	if err := tx.PushInput(input); err != nil {
		t.Fatalf("PushInput: %v", err)
	}
	if err := tx.PushOutput(ToTransactionOutput(changeNote, 97, changeBlinding, pkA)); err != nil {
		t.Fatalf("PushOutput: %v", err)
	}
	tx.SetFee(ToTransactionOutput(feeNote, 3, feeBlinding, pkA))

	if err := Prove(ctx, tx, storage); err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if len(tx.Proof) == 0 {
		t.Fatal("Prove produced an empty proof")
	}
	tx.Proof[0] ^= 0xFF

	if err := Verify(ctx, tx); err == nil {
		t.Fatal("expected Verify to reject a tampered proof")
	}
}

// TestS6RangeRejected: a value beyond 64 bits must be rejected before it
// ever reaches the circuit's range gadget.
func TestS6RangeRejected(t *testing.T) {
	tooLarge := new(big.Int).SetUint64(1)
	tooLarge.Lsh(tooLarge, 64)
	if err := CheckValueRange(tooLarge); err != ErrArithmeticOverflow {
		t.Fatalf("CheckValueRange(2^64) = %v, want ErrArithmeticOverflow", err)
	}
}
