package phoenix

import "testing"

func TestTreeAppendAndOpeningRecomputesRoot(t *testing.T) {
	tree := NewTree()

	var leaves []Scalar
	for i := uint64(0); i < 6; i++ {
		var s Scalar
		s.SetUint64(i + 1)
		leaves = append(leaves, s)
		if idx := tree.Append(s); idx != i {
			t.Fatalf("Append returned idx %d, want %d", idx, i)
		}
	}

	root := tree.Root()
	for i, leaf := range leaves {
		opening := tree.Opening(uint64(i))
		got := opening.Root(leaf)
		if !got.Equal(&root) {
			t.Fatalf("opening for leaf %d did not reconstruct the tree root", i)
		}
	}
}

func TestEmptyTreeRootIsStable(t *testing.T) {
	a := NewTree()
	b := NewTree()
	ra := a.Root()
	rb := b.Root()
	if !ra.Equal(&rb) {
		t.Fatal("two freshly built empty trees have different roots")
	}
}

func TestOpeningOfWrongLeafFailsToReconstructRoot(t *testing.T) {
	tree := NewTree()
	var s1, s2 Scalar
	s1.SetUint64(1)
	s2.SetUint64(2)
	tree.Append(s1)
	tree.Append(s2)

	root := tree.Root()
	opening := tree.Opening(0)
	got := opening.Root(s2) // wrong leaf for this opening
	if got.Equal(&root) {
		t.Fatal("opening reconstructed the root from the wrong leaf")
	}
}
