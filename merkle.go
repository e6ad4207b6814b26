// merkle.go - Fixed-depth MiMC Merkle accumulator for note commitments.
//
// The accumulator root at a point in chain history is the Anchor a
// transaction's inclusion proofs are valid against. The in-memory Tree backs
// the MemoryState collaborator and tests; production state clients fetch
// openings from the chain instead.

package wallet

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// TreeDepth is the accumulator depth; a compile-time constant of the system.
const TreeDepth = 17

// Opening is the inclusion proof of a leaf against an anchor.
type Opening struct {
	// Position of the leaf in the tree.
	Position uint64
	// Path holds the sibling hash at every level, leaf level first.
	Path [TreeDepth]fr.Element
}

// Verify reports whether the opening proves leaf under anchor.
func (o *Opening) Verify(leaf, anchor fr.Element) bool {
	cur := leaf
	for i := 0; i < TreeDepth; i++ {
		if (o.Position>>uint(i))&1 == 1 {
			cur = hashToScalar(o.Path[i], cur)
		} else {
			cur = hashToScalar(cur, o.Path[i])
		}
	}
	return cur.Equal(&anchor)
}

// Tree is a sparse in-memory MiMC Merkle tree of depth TreeDepth.
type Tree struct {
	leaves map[uint64]fr.Element
	// empty[i] is the root of an empty subtree of height i.
	empty [TreeDepth + 1]fr.Element
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	t := &Tree{leaves: make(map[uint64]fr.Element)}
	for i := 1; i <= TreeDepth; i++ {
		t.empty[i] = hashToScalar(t.empty[i-1], t.empty[i-1])
	}
	return t
}

// Insert places a leaf at the given position, replacing any previous leaf.
func (t *Tree) Insert(pos uint64, leaf fr.Element) error {
	if pos >= 1<<TreeDepth {
		return fmt.Errorf("merkle: position %d out of range for depth %d", pos, TreeDepth)
	}
	t.leaves[pos] = leaf
	return nil
}

// Root returns the current accumulator root.
func (t *Tree) Root() fr.Element {
	return t.node(TreeDepth, 0)
}

// Opening returns the inclusion proof for the leaf at pos. Fails with
// ErrNoteNotFound if no leaf was inserted there.
func (t *Tree) Opening(pos uint64) (Opening, error) {
	if _, ok := t.leaves[pos]; !ok {
		return Opening{}, ErrNoteNotFound
	}
	o := Opening{Position: pos}
	for i := 0; i < TreeDepth; i++ {
		o.Path[i] = t.node(i, (pos>>uint(i))^1)
	}
	return o, nil
}

// node computes the hash of the subtree of the given height rooted at idx.
func (t *Tree) node(height int, idx uint64) fr.Element {
	if !t.occupied(height, idx) {
		return t.empty[height]
	}
	if height == 0 {
		return t.leaves[idx]
	}
	left := t.node(height-1, 2*idx)
	right := t.node(height-1, 2*idx+1)
	return hashToScalar(left, right)
}

func (t *Tree) occupied(height int, idx uint64) bool {
	for pos := range t.leaves {
		if pos>>uint(height) == idx {
			return true
		}
	}
	return false
}
