package phoenix

import (
	"context"
	"testing"
)

func notesEqual(t *testing.T, got, want Note) {
	t.Helper()
	if got.Kind != want.Kind {
		t.Errorf("Kind = %v, want %v", got.Kind, want.Kind)
	}
	if got.Idx != want.Idx {
		t.Errorf("Idx = %d, want %d", got.Idx, want.Idx)
	}
	if got.RG != want.RG {
		t.Errorf("RG mismatch")
	}
	if got.PkR != want.PkR {
		t.Errorf("PkR mismatch")
	}
	if !got.Commitment.Equal(&want.Commitment) {
		t.Errorf("Commitment mismatch")
	}
	if got.Nonce != want.Nonce {
		t.Errorf("Nonce mismatch")
	}
	if string(got.EncryptedBlinding) != string(want.EncryptedBlinding) {
		t.Errorf("EncryptedBlinding mismatch")
	}
	if string(got.EncryptedValue) != string(want.EncryptedValue) {
		t.Errorf("EncryptedValue mismatch")
	}
	if got.ClearValue != want.ClearValue {
		t.Errorf("ClearValue = %d, want %d", got.ClearValue, want.ClearValue)
	}
}

// TestTransactionEncodeDecodeRoundTrip proves a real S1-shaped transaction,
// serializes it, and checks that every field Decode produces - including a
// transparent note's clear value, which the wire format carries alongside
// everything else rather than leaving it implicit - matches what was
// encoded.
func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
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

	if err := Prove(ctx, tx, storage); err != nil {
		t.Fatalf("Prove: %v", err)
	}

	wire, err := tx.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeTransaction(wire)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}

	if len(decoded.Inputs) != len(tx.Inputs) {
		t.Fatalf("decoded %d inputs, want %d", len(decoded.Inputs), len(tx.Inputs))
	}
	for i, in := range tx.Inputs {
		notesEqual(t, decoded.Inputs[i].Note, in.Note)
		if !decoded.Inputs[i].Nullifier.Equal(&in.Nullifier) {
			t.Errorf("input %d nullifier mismatch", i)
		}
		for lvl := 0; lvl < TreeHeight; lvl++ {
			gotLvl := decoded.Inputs[i].Opening.Levels[lvl]
			wantLvl := in.Opening.Levels[lvl]
			if gotLvl.ChildIndex != wantLvl.ChildIndex {
				t.Fatalf("input %d level %d ChildIndex = %d, want %d", i, lvl, gotLvl.ChildIndex, wantLvl.ChildIndex)
			}
			for j := 0; j < TreeArity; j++ {
				if !gotLvl.Siblings[j].Equal(&wantLvl.Siblings[j]) {
					t.Fatalf("input %d level %d sibling %d mismatch", i, lvl, j)
				}
			}
		}
	}

	if len(decoded.Outputs) != len(tx.Outputs) {
		t.Fatalf("decoded %d outputs, want %d", len(decoded.Outputs), len(tx.Outputs))
	}
	for i, out := range tx.Outputs {
		notesEqual(t, decoded.Outputs[i].Note, out.Note)
	}

	notesEqual(t, decoded.Fee.Note, tx.Fee.Note)

	if decoded.HasCrossover != tx.HasCrossover {
		t.Errorf("HasCrossover = %v, want %v", decoded.HasCrossover, tx.HasCrossover)
	}

	if string(decoded.Proof) != string(tx.Proof) {
		t.Errorf("Proof mismatch")
	}
	if len(decoded.PublicInput) != len(tx.PublicInput) {
		t.Fatalf("decoded %d public inputs, want %d", len(decoded.PublicInput), len(tx.PublicInput))
	}
	for i := range tx.PublicInput {
		if !decoded.PublicInput[i].Equal(&tx.PublicInput[i]) {
			t.Errorf("public input %d mismatch", i)
		}
	}

	if err := Verify(ctx, decoded); err != nil {
		t.Fatalf("Verify(decoded): %v", err)
	}
}
