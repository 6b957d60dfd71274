// merkle.go - The fixed-height, fixed-arity note commitment tree.
//
// Every internal node hashes a one-hot selector (which of the four child
// slots holds the path being proved) together with all four children:
// Sponge(selector[0..3], children[0..3]). The selector does double duty -
// it is both the in-circuit boolean-sum-to-one gadget input and the value
// that lets two different openings of the same tree produce two different,
// unambiguous nodeHash results even when the sibling set is identical.
//
// Positions never written are not a separate "unoccupied" case: they simply
// read as a precomputed per-level "empty subtree" constant, built once from
// empty[0] = 0 with an all-zero selector.

package phoenix

const (
	TreeHeight = 32
	TreeArity  = 4
)

// MerkleLevel is one step of an opening: the four siblings at this level,
// and which of the four slots is occupied by the node being proved.
type MerkleLevel struct {
	Siblings   [TreeArity]Scalar
	ChildIndex int
}

// nodeHash folds current into this level's sibling row at ChildIndex and
// returns the parent node's hash.
func (l MerkleLevel) nodeHash(current Scalar) Scalar {
	var selector [TreeArity]Scalar
	selector[l.ChildIndex].SetOne()

	children := l.Siblings
	children[l.ChildIndex] = current

	in := make([]Scalar, 0, 2*TreeArity)
	in = append(in, selector[:]...)
	in = append(in, children[:]...)
	return Sponge(in...)
}

// MerkleProof is a full opening of one leaf up to the root.
type MerkleProof struct {
	Levels [TreeHeight]MerkleLevel
}

// Root recomputes the tree root implied by this opening for the given leaf.
func (p MerkleProof) Root(leaf Scalar) Scalar {
	cur := leaf
	for i := 0; i < TreeHeight; i++ {
		cur = p.Levels[i].nodeHash(cur)
	}
	return cur
}

// Tree is a sparse, incrementally-appendable Merkle tree of height
// TreeHeight and arity TreeArity, storing only the nodes that have actually
// been written.
type Tree struct {
	nodes []map[uint64]Scalar // nodes[level][index]
	empty []Scalar            // empty[level] is the canonical hash of an untouched subtree at that level
	count uint64
}

// NewTree builds an empty tree, precomputing the empty-subtree hash chain.
func NewTree() *Tree {
	empty := make([]Scalar, TreeHeight+1)
	empty[0].SetZero()
	for lvl := 1; lvl <= TreeHeight; lvl++ {
		var selector [TreeArity]Scalar // all-zero: no real child at this empty node
		children := [TreeArity]Scalar{empty[lvl-1], empty[lvl-1], empty[lvl-1], empty[lvl-1]}
		in := make([]Scalar, 0, 2*TreeArity)
		in = append(in, selector[:]...)
		in = append(in, children[:]...)
		empty[lvl] = Sponge(in...)
	}

	nodes := make([]map[uint64]Scalar, TreeHeight+1)
	for i := range nodes {
		nodes[i] = make(map[uint64]Scalar)
	}

	return &Tree{nodes: nodes, empty: empty}
}

// nodeAt returns the hash stored at (level, index), or the level's empty
// constant if nothing has been written there yet.
func (t *Tree) nodeAt(level int, index uint64) Scalar {
	if v, ok := t.nodes[level][index]; ok {
		return v
	}
	return t.empty[level]
}

func (t *Tree) setNode(level int, index uint64, v Scalar) {
	t.nodes[level][index] = v
}

// Append inserts leaf as the next unused leaf and returns its index,
// propagating the updated hash up through every ancestor level.
func (t *Tree) Append(leaf Scalar) uint64 {
	idx := t.count
	t.count++

	t.setNode(0, idx, leaf)
	cur := idx
	hash := leaf
	for lvl := 1; lvl <= TreeHeight; lvl++ {
		parent := cur / TreeArity
		childIdx := int(cur % TreeArity)

		var selector [TreeArity]Scalar
		selector[childIdx].SetOne()

		var children [TreeArity]Scalar
		base := parent * TreeArity
		for i := 0; i < TreeArity; i++ {
			if uint64(i) == cur%TreeArity {
				children[i] = hash
			} else {
				children[i] = t.nodeAt(lvl-1, base+uint64(i))
			}
		}

		in := make([]Scalar, 0, 2*TreeArity)
		in = append(in, selector[:]...)
		in = append(in, children[:]...)
		hash = Sponge(in...)

		t.setNode(lvl, parent, hash)
		cur = parent
	}
	return idx
}

// Root returns the current tree root.
func (t *Tree) Root() Scalar {
	return t.nodeAt(TreeHeight, 0)
}

// Opening builds the full membership proof for the leaf at idx.
func (t *Tree) Opening(idx uint64) MerkleProof {
	var proof MerkleProof
	cur := idx
	for lvl := 0; lvl < TreeHeight; lvl++ {
		parent := cur / TreeArity
		childIdx := int(cur % TreeArity)
		base := parent * TreeArity

		var level MerkleLevel
		level.ChildIndex = childIdx
		for i := 0; i < TreeArity; i++ {
			level.Siblings[i] = t.nodeAt(lvl, base+uint64(i))
		}
		proof.Levels[lvl] = level
		cur = parent
	}
	return proof
}
