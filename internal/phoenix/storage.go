// storage.go - The note storage boundary and an in-memory reference
// implementation.
//
// NoteStorage is the full surface a ledger-keeping component must provide:
// appending notes, looking a note up, checking and recording spent
// nullifiers, and exposing the tree's current root and openings. A prover
// only ever needs the last of those, so it is pulled out separately as
// MerkleProofProvider - Prove accepts the narrower interface so it cannot
// accidentally mutate storage.
//
// MemoryNoteStorage is a single-process, mutex-guarded implementation meant
// for tests and the demo binary; a real deployment backs NoteStorage with a
// durable store instead. Snapshot/LoadSnapshot give it an optional CBOR
// save/load path so the demo binary can survive a restart without a real
// backing store.

package phoenix

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// NoteStorage is the full persistence surface a ledger needs.
type NoteStorage interface {
	StoreUnspent(ctx context.Context, note Note) (idx uint64, err error)
	Fetch(ctx context.Context, idx uint64) (Note, error)
	NullifierSeen(ctx context.Context, n Nullifier) (bool, error)
	InsertNullifier(ctx context.Context, n Nullifier) error
	Root(ctx context.Context) (Scalar, error)
	MerkleOpening(ctx context.Context, idx uint64) (MerkleProof, error)
}

// MerkleProofProvider is the narrow read-only capability a prover needs.
type MerkleProofProvider interface {
	MerkleOpening(ctx context.Context, idx uint64) (MerkleProof, error)
}

// MemoryNoteStorage is an in-process NoteStorage backed by a Tree and a set
// of spent nullifiers, guarded by a single mutex.
type MemoryNoteStorage struct {
	mu         sync.Mutex
	notes      []Note
	tree       *Tree
	nullifiers map[Nullifier]struct{}
}

// NewMemoryNoteStorage builds an empty store.
func NewMemoryNoteStorage() *MemoryNoteStorage {
	return &MemoryNoteStorage{
		tree:       NewTree(),
		nullifiers: make(map[Nullifier]struct{}),
	}
}

func (s *MemoryNoteStorage) StoreUnspent(ctx context.Context, note Note) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Idx must be set before Hash() is computed: the leaf folds idx into the
	// sponge, and that is the exact value the circuit later recomputes its
	// own leaf against.
	note.Idx = s.tree.count
	idx := s.tree.Append(note.Hash())
	s.notes = append(s.notes, note)
	return idx, nil
}

func (s *MemoryNoteStorage) Fetch(ctx context.Context, idx uint64) (Note, error) {
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notes {
		if n.Idx == idx {
			return n, nil
		}
	}
	return Note{}, ErrNoteNotFound
}

func (s *MemoryNoteStorage) NullifierSeen(ctx context.Context, n Nullifier) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, seen := s.nullifiers[n]
	return seen, nil
}

func (s *MemoryNoteStorage) InsertNullifier(ctx context.Context, n Nullifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.nullifiers[n]; seen {
		return fmt.Errorf("%w: %w", ErrStorageFailure, ErrAlreadyPresent)
	}
	s.nullifiers[n] = struct{}{}
	return nil
}

func (s *MemoryNoteStorage) Root(ctx context.Context) (Scalar, error) {
	if err := ctx.Err(); err != nil {
		return Scalar{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tree.Root(), nil
}

func (s *MemoryNoteStorage) MerkleOpening(ctx context.Context, idx uint64) (MerkleProof, error) {
	if err := ctx.Err(); err != nil {
		return MerkleProof{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx >= s.tree.count {
		return MerkleProof{}, ErrNoteNotFound
	}
	return s.tree.Opening(idx), nil
}

// snapshotNote is the CBOR-friendly shape of a stored Note: every field
// reduced to bytes via the same ScalarToBytes/PointToBytes conversions
// used at the wire-encoding boundary, rather than letting CBOR reflect
// directly over gnark-crypto's internal field representation.
type snapshotNote struct {
	Kind              NoteKind
	Idx               uint64
	RG                [32]byte
	PkR               [32]byte
	Commitment        [32]byte
	Nonce             [24]byte
	EncryptedBlinding []byte
	EncryptedValue    []byte
	ClearValue        uint64
}

// storageSnapshot is the full on-disk shape of a MemoryNoteStorage: every
// stored note in append order, plus the set of nullifiers recorded as
// spent. The tree itself is never serialized - replaying StoreUnspent for
// each note in its original order reconstructs an identical tree, since
// Append's result depends only on insertion order.
type storageSnapshot struct {
	Notes      []snapshotNote
	Nullifiers [][32]byte
}

// Snapshot serializes every stored note and recorded nullifier as CBOR, so
// the demo binary can persist ledger state across process restarts instead
// of losing it when the process exits.
func (s *MemoryNoteStorage) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := storageSnapshot{
		Notes:      make([]snapshotNote, len(s.notes)),
		Nullifiers: make([][32]byte, 0, len(s.nullifiers)),
	}
	for i, n := range s.notes {
		snap.Notes[i] = snapshotNote{
			Kind:              n.Kind,
			Idx:               n.Idx,
			RG:                PointToBytes(n.RG),
			PkR:               PointToBytes(n.PkR),
			Commitment:        ScalarToBytes(n.Commitment),
			Nonce:             n.Nonce,
			EncryptedBlinding: n.EncryptedBlinding,
			EncryptedValue:    n.EncryptedValue,
			ClearValue:        n.ClearValue,
		}
	}
	for n := range s.nullifiers {
		snap.Nullifiers = append(snap.Nullifiers, ScalarToBytes(n))
	}

	data, err := cbor.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return data, nil
}

// LoadSnapshot rebuilds a MemoryNoteStorage from bytes produced by
// Snapshot, replaying each note into a fresh tree in its original append
// order so the reconstructed root matches the one that was saved.
func LoadSnapshot(data []byte) (*MemoryNoteStorage, error) {
	var snap storageSnapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	s := NewMemoryNoteStorage()
	ctx := context.Background()
	for _, sn := range snap.Notes {
		rg, err := PointFromBytes(sn.RG[:])
		if err != nil {
			return nil, err
		}
		pkr, err := PointFromBytes(sn.PkR[:])
		if err != nil {
			return nil, err
		}
		commitment, err := ScalarFromBytes(sn.Commitment[:])
		if err != nil {
			return nil, err
		}
		note := Note{
			Kind:              sn.Kind,
			RG:                rg,
			PkR:               pkr,
			Commitment:        commitment,
			Nonce:             sn.Nonce,
			EncryptedBlinding: sn.EncryptedBlinding,
			EncryptedValue:    sn.EncryptedValue,
			ClearValue:        sn.ClearValue,
		}
		if _, err := s.StoreUnspent(ctx, note); err != nil {
			return nil, err
		}
	}
	for _, nb := range snap.Nullifiers {
		n, err := ScalarFromBytes(nb[:])
		if err != nil {
			return nil, err
		}
		s.nullifiers[n] = struct{}{}
	}
	return s, nil
}
