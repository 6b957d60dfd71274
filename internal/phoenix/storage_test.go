package phoenix

import (
	"context"
	"testing"
)

func TestMemoryNoteStorageStoreFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryNoteStorage()

	pk := SecretKeyFromSeed([]byte("alice")).PublicKey()
	note, _ := Output(KindTransparent, pk, 100)

	idx, err := storage.StoreUnspent(ctx, note)
	if err != nil {
		t.Fatalf("StoreUnspent: %v", err)
	}

	got, err := storage.Fetch(ctx, idx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Idx != idx {
		t.Fatalf("fetched note has idx %d, want %d", got.Idx, idx)
	}
}

func TestMemoryNoteStorageFetchMissing(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryNoteStorage()
	if _, err := storage.Fetch(ctx, 42); err != ErrNoteNotFound {
		t.Fatalf("Fetch of missing note = %v, want ErrNoteNotFound", err)
	}
}

func TestMemoryNoteStorageNullifierDoubleInsertFails(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryNoteStorage()

	var n Nullifier
	n.SetUint64(1)

	if err := storage.InsertNullifier(ctx, n); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := storage.InsertNullifier(ctx, n); err == nil {
		t.Fatal("expected error inserting the same nullifier twice")
	}

	seen, err := storage.NullifierSeen(ctx, n)
	if err != nil {
		t.Fatalf("NullifierSeen: %v", err)
	}
	if !seen {
		t.Fatal("nullifier inserted earlier is not reported as seen")
	}
}

func TestMemoryNoteStorageSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryNoteStorage()

	sk := SecretKeyFromSeed([]byte("alice"))
	pk := sk.PublicKey()
	vk := sk.ViewKey()
	n1, _ := Output(KindTransparent, pk, 10)
	n2, _ := Output(KindObfuscated, pk, 20)
	if _, err := storage.StoreUnspent(ctx, n1); err != nil {
		t.Fatalf("StoreUnspent n1: %v", err)
	}
	if _, err := storage.StoreUnspent(ctx, n2); err != nil {
		t.Fatalf("StoreUnspent n2: %v", err)
	}

	var spent Nullifier
	spent.SetUint64(7)
	if err := storage.InsertNullifier(ctx, spent); err != nil {
		t.Fatalf("InsertNullifier: %v", err)
	}

	wantRoot, err := storage.Root(ctx)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	data, err := storage.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored, err := LoadSnapshot(data)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	gotRoot, err := restored.Root(ctx)
	if err != nil {
		t.Fatalf("Root (restored): %v", err)
	}
	if !gotRoot.Equal(&wantRoot) {
		t.Fatal("restored tree root does not match the snapshotted root")
	}

	seen, err := restored.NullifierSeen(ctx, spent)
	if err != nil {
		t.Fatalf("NullifierSeen (restored): %v", err)
	}
	if !seen {
		t.Fatal("restored storage lost a recorded nullifier")
	}

	got, err := restored.Fetch(ctx, 1)
	if err != nil {
		t.Fatalf("Fetch (restored): %v", err)
	}
	if got.Kind != KindObfuscated {
		t.Fatalf("restored note 1 has kind %v, want KindObfuscated", got.Kind)
	}
	if !got.IsOwnedBy(vk) {
		t.Fatal("restored note 1 no longer recognizes its owner")
	}
	if got.Value(&vk) != 20 {
		t.Fatalf("restored note 1 decrypts to the wrong value")
	}
}

func TestMemoryNoteStorageRootChangesOnAppend(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryNoteStorage()

	before, err := storage.Root(ctx)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	pk := SecretKeyFromSeed([]byte("alice")).PublicKey()
	note, _ := Output(KindTransparent, pk, 1)
	if _, err := storage.StoreUnspent(ctx, note); err != nil {
		t.Fatalf("StoreUnspent: %v", err)
	}

	after, err := storage.Root(ctx)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if before.Equal(&after) {
		t.Fatal("root did not change after appending a note")
	}
}
