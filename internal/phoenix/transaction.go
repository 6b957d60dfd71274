// transaction.go - Transaction assembly, native balance pre-checks, and wire
// encoding.
//
// A TransactionItem is the witness-bearing form of one note as it
// participates in a transaction: the underlying note, its cleartext value
// and blinding factor (known to whoever is building the proof), and for
// inputs, the owning secret key, the Merkle opening proving the note is
// actually in the tree, and the nullifier that will be published to mark it
// spent.
//
// BalanceCheck runs the same arithmetic identity the circuit enforces,
// natively, before a proof is ever attempted - it exists purely to turn an
// unbalanceable transaction into a cheap, fast native error instead of a
// slow failed proving run.

package phoenix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
)

const (
	MaxInput  = 2
	MaxOutput = 2

	wireVersion = 0x01
)

// TransactionItem is one note, plus everything known about it by whoever is
// assembling the transaction.
type TransactionItem struct {
	Note     Note
	Value    uint64
	Blinding Scalar

	// Input-only fields.
	SK         *SecretKey
	Opening    MerkleProof
	Nullifier  Nullifier

	// Output-only field: destination of a freshly minted note.
	PK PublicKey
}

// Equal reports whether two items describe the same spend: same value,
// nullifier, blinding factor, owning key material, destination key and note
// hash.
func (a TransactionItem) Equal(b TransactionItem) bool {
	if a.Value != b.Value {
		return false
	}
	if !a.Blinding.Equal(&b.Blinding) {
		return false
	}
	if !a.Nullifier.Equal(&b.Nullifier) {
		return false
	}
	if a.Note.Hash() != b.Note.Hash() {
		return false
	}
	if !a.PK.AG.X.Equal(&b.PK.AG.X) || !a.PK.AG.Y.Equal(&b.PK.AG.Y) {
		return false
	}
	if !a.PK.BG.X.Equal(&b.PK.BG.X) || !a.PK.BG.Y.Equal(&b.PK.BG.Y) {
		return false
	}
	switch {
	case a.SK == nil && b.SK != nil, a.SK != nil && b.SK == nil:
		return false
	case a.SK != nil && b.SK != nil:
		if !a.SK.A.Equal(&b.SK.A) || !a.SK.B.Equal(&b.SK.B) {
			return false
		}
	}
	return true
}

// Less implements the item total order: inputs sort before outputs, then by
// value, then by note-hash bytes as a final tie-break.
func (a TransactionItem) Less(b TransactionItem) bool {
	aIn, bIn := a.SK != nil, b.SK != nil
	if aIn != bIn {
		return aIn
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	ah, bh := a.Note.Hash(), b.Note.Hash()
	ab, bb := ScalarToBytes(ah), ScalarToBytes(bh)
	return bytes.Compare(ab[:], bb[:]) < 0
}

// ToTransactionInput binds a stored note to the secret key that can spend
// it and a Merkle opening proving it is unspent in the tree, deriving its
// value, blinding factor and nullifier along the way. It fails with
// ErrInvalidParameters if sk does not own note.
func ToTransactionInput(note Note, sk SecretKey, opening MerkleProof) (TransactionItem, error) {
	vk := sk.ViewKey()
	if !note.IsOwnedBy(vk) {
		return TransactionItem{}, fmt.Errorf("%w: secret key does not own note", ErrInvalidParameters)
	}

	value := note.Value(&vk)
	blinding := note.BlindingFactor(vk)
	skR := SkR(sk, note.RG)
	nullifier := DeriveNullifier(skR, note.Idx)

	return TransactionItem{
		Note:      note,
		Value:     value,
		Blinding:  blinding,
		SK:        &sk,
		Opening:   opening,
		Nullifier: nullifier,
	}, nil
}

// ToTransactionOutput builds a fresh output item paying pk. The caller is
// expected to have produced note via Output(kind, pk, value).
func ToTransactionOutput(note Note, value uint64, blinding Scalar, pk PublicKey) TransactionItem {
	return TransactionItem{
		Note:     note,
		Value:    value,
		Blinding: blinding,
		PK:       pk,
	}
}

// Transaction is a fully assembled, provable spend: up to MaxInput notes
// consumed, up to MaxOutput notes created, one mandatory fee item, and an
// optional crossover item used for contract interaction.
type Transaction struct {
	Inputs  []TransactionItem
	Outputs []TransactionItem
	Fee     TransactionItem

	HasCrossover bool
	Crossover    TransactionItem

	Proof       []byte
	PublicInput []Scalar
}

// NewTransaction returns an empty transaction ready to receive inputs and
// outputs.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// PushInput appends an input item, rejecting a transaction that would
// exceed MaxInput.
func (t *Transaction) PushInput(item TransactionItem) error {
	if len(t.Inputs) >= MaxInput {
		return ErrTooManyItems
	}
	t.Inputs = append(t.Inputs, item)
	return nil
}

// PushOutput appends an output item, rejecting a transaction that would
// exceed MaxOutput.
func (t *Transaction) PushOutput(item TransactionItem) error {
	if len(t.Outputs) >= MaxOutput {
		return ErrTooManyItems
	}
	t.Outputs = append(t.Outputs, item)
	return nil
}

// SetFee installs the mandatory fee item.
func (t *Transaction) SetFee(item TransactionItem) {
	t.Fee = item
}

// SetCrossover installs an optional crossover item and marks it present.
func (t *Transaction) SetCrossover(item TransactionItem) {
	t.Crossover = item
	t.HasCrossover = true
}

// BalanceCheck verifies, natively and with overflow detection, that
// sum(inputs) == sum(outputs) + fee + crossover. It returns ErrFeeMissing if
// no fee item has ever been set, ErrArithmeticOverflow if any running sum
// would exceed 64 bits, and an ErrProofInvalid-wrapped error on mismatch.
func (t *Transaction) BalanceCheck() error {
	if t.Fee.Value == 0 && t.Fee.Blinding.IsZero() {
		return ErrFeeMissing
	}

	inSum := new(big.Int)
	for _, in := range t.Inputs {
		inSum.Add(inSum, new(big.Int).SetUint64(in.Value))
	}
	if err := CheckValueRange(inSum); err != nil {
		return err
	}

	outSum := new(big.Int).SetUint64(t.Fee.Value)
	for _, out := range t.Outputs {
		outSum.Add(outSum, new(big.Int).SetUint64(out.Value))
	}
	if t.HasCrossover {
		outSum.Add(outSum, new(big.Int).SetUint64(t.Crossover.Value))
	}
	if err := CheckValueRange(outSum); err != nil {
		return err
	}

	if inSum.Cmp(outSum) != 0 {
		return fmt.Errorf("%w: inputs %s do not match outputs+fee %s", ErrProofInvalid, inSum, outSum)
	}
	return nil
}

// Encode serializes the transaction to its wire form: a version byte,
// length-prefixed input and output descriptors, the fee descriptor, an
// optional crossover descriptor, and the fixed-size proof and public-input
// vectors.
func (t *Transaction) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(wireVersion)

	if err := encodeItems(&buf, t.Inputs, true); err != nil {
		return nil, err
	}
	if err := encodeItems(&buf, t.Outputs, false); err != nil {
		return nil, err
	}
	if err := encodeItem(&buf, t.Fee, false); err != nil {
		return nil, err
	}

	if t.HasCrossover {
		buf.WriteByte(1)
		if err := encodeItem(&buf, t.Crossover, false); err != nil {
			return nil, err
		}
	} else {
		buf.WriteByte(0)
	}

	writeUvarintBytes(&buf, t.Proof)

	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(t.PublicInput)))
	buf.Write(count[:])
	for _, s := range t.PublicInput {
		b := ScalarToBytes(s)
		buf.Write(b[:])
	}

	return buf.Bytes(), nil
}

// DecodeTransaction parses the wire form produced by Encode.
func DecodeTransaction(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	if version != wireVersion {
		return nil, fmt.Errorf("%w: unsupported transaction version %d", ErrInvalidParameters, version)
	}

	t := &Transaction{}

	t.Inputs, err = decodeItems(r, true)
	if err != nil {
		return nil, err
	}
	t.Outputs, err = decodeItems(r, false)
	if err != nil {
		return nil, err
	}
	t.Fee, err = decodeItem(r, false)
	if err != nil {
		return nil, err
	}

	hasCrossover, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	if hasCrossover == 1 {
		t.Crossover, err = decodeItem(r, false)
		if err != nil {
			return nil, err
		}
		t.HasCrossover = true
	}

	t.Proof, err = readUvarintBytes(r)
	if err != nil {
		return nil, err
	}

	var countBuf [4]byte
	if _, err := r.Read(countBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])
	t.PublicInput = make([]Scalar, count)
	for i := range t.PublicInput {
		var sb [32]byte
		if _, err := r.Read(sb[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
		s, err := ScalarFromBytes(sb[:])
		if err != nil {
			return nil, err
		}
		t.PublicInput[i] = s
	}

	return t, nil
}

func encodeItems(buf *bytes.Buffer, items []TransactionItem, withNullifier bool) error {
	buf.WriteByte(byte(len(items)))
	for _, it := range items {
		if err := encodeItem(buf, it, withNullifier); err != nil {
			return err
		}
	}
	return nil
}

func encodeItem(buf *bytes.Buffer, it TransactionItem, withNullifier bool) error {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], it.Note.Idx)
	buf.Write(idx[:])

	rg := PointToBytes(it.Note.RG)
	buf.Write(rg[:])
	pkr := PointToBytes(it.Note.PkR)
	buf.Write(pkr[:])
	cm := ScalarToBytes(it.Note.Commitment)
	buf.Write(cm[:])
	buf.Write(it.Note.Nonce[:])

	writeUvarintBytes(buf, it.Note.EncryptedBlinding)
	writeUvarintBytes(buf, it.Note.EncryptedValue)
	buf.WriteByte(byte(it.Note.Kind))

	var clear [8]byte
	binary.LittleEndian.PutUint64(clear[:], it.Note.ClearValue)
	buf.Write(clear[:])

	if withNullifier {
		n := ScalarToBytes(it.Nullifier)
		buf.Write(n[:])
		encodeMerkleProof(buf, it.Opening)
	}
	return nil
}

// encodeMerkleProof writes every level's one-hot child index and sibling
// row, in the same root-reconstruction order MerkleProof.Root walks them.
func encodeMerkleProof(buf *bytes.Buffer, p MerkleProof) {
	for _, lvl := range p.Levels {
		buf.WriteByte(byte(lvl.ChildIndex))
		for _, s := range lvl.Siblings {
			b := ScalarToBytes(s)
			buf.Write(b[:])
		}
	}
}

func decodeMerkleProof(r *bytes.Reader) (MerkleProof, error) {
	var p MerkleProof
	for i := 0; i < TreeHeight; i++ {
		childIdx, err := r.ReadByte()
		if err != nil {
			return MerkleProof{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
		var lvl MerkleLevel
		lvl.ChildIndex = int(childIdx)
		for j := 0; j < TreeArity; j++ {
			var sb [32]byte
			if _, err := r.Read(sb[:]); err != nil {
				return MerkleProof{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
			}
			s, err := ScalarFromBytes(sb[:])
			if err != nil {
				return MerkleProof{}, err
			}
			lvl.Siblings[j] = s
		}
		p.Levels[i] = lvl
	}
	return p, nil
}

func decodeItems(r *bytes.Reader, withNullifier bool) ([]TransactionItem, error) {
	countByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	items := make([]TransactionItem, countByte)
	for i := range items {
		it, err := decodeItem(r, withNullifier)
		if err != nil {
			return nil, err
		}
		items[i] = it
	}
	return items, nil
}

func decodeItem(r *bytes.Reader, withNullifier bool) (TransactionItem, error) {
	var idxBuf [8]byte
	if _, err := r.Read(idxBuf[:]); err != nil {
		return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	idx := binary.LittleEndian.Uint64(idxBuf[:])

	var rgBuf, pkrBuf [32]byte
	if _, err := r.Read(rgBuf[:]); err != nil {
		return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	rg, err := PointFromBytes(rgBuf[:])
	if err != nil {
		return TransactionItem{}, err
	}
	if _, err := r.Read(pkrBuf[:]); err != nil {
		return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	pkr, err := PointFromBytes(pkrBuf[:])
	if err != nil {
		return TransactionItem{}, err
	}

	var cmBuf [32]byte
	if _, err := r.Read(cmBuf[:]); err != nil {
		return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	cm, err := ScalarFromBytes(cmBuf[:])
	if err != nil {
		return TransactionItem{}, err
	}

	var nonce [24]byte
	if _, err := r.Read(nonce[:]); err != nil {
		return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	encBlinding, err := readUvarintBytes(r)
	if err != nil {
		return TransactionItem{}, err
	}
	encValue, err := readUvarintBytes(r)
	if err != nil {
		return TransactionItem{}, err
	}

	kindByte, err := r.ReadByte()
	if err != nil {
		return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	var clearBuf [8]byte
	if _, err := r.Read(clearBuf[:]); err != nil {
		return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	note := Note{
		Kind:              NoteKind(kindByte),
		Idx:               idx,
		RG:                rg,
		PkR:               pkr,
		Commitment:        cm,
		Nonce:             nonce,
		EncryptedBlinding: encBlinding,
		EncryptedValue:    encValue,
		ClearValue:        binary.LittleEndian.Uint64(clearBuf[:]),
	}

	item := TransactionItem{Note: note}
	if withNullifier {
		var nBuf [32]byte
		if _, err := r.Read(nBuf[:]); err != nil {
			return TransactionItem{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
		n, err := ScalarFromBytes(nBuf[:])
		if err != nil {
			return TransactionItem{}, err
		}
		item.Nullifier = n

		opening, err := decodeMerkleProof(r)
		if err != nil {
			return TransactionItem{}, err
		}
		item.Opening = opening
	}
	return item, nil
}

func writeUvarintBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	buf.Write(lenBuf[:n])
	buf.Write(b)
}

func readUvarintBytes(r *bytes.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
		}
	}
	return b, nil
}
