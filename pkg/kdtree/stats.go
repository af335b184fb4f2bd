package kdtree

import (
	"errors"
	"fmt"
	"slices"
)

// Validation errors.
var (
	ErrBoxMismatch   = errors.New("node box is not the union of its triangles")
	ErrPartition     = errors.New("child lists do not partition the parent list")
	ErrDanglingSlot  = errors.New("node references a released triangle")
	ErrArenaMismatch = errors.New("arena and root list disagree")
)

// Stats describes the shape of the tree.
type Stats struct {
	Nodes      int
	Leaves     int
	MaxDepth   int
	AvgDepth   float64 // mean leaf depth
	Triangles  int     // distinct triangles in the tree
	References int     // triangle entries across reachable leaf lists

	// DeferredSplits counts insertions that made a leaf worth splitting
	// while SplitOnInsert was off.
	DeferredSplits int
	// InsertSplits counts leaves split during insertion.
	InsertSplits int
}

// Walk calls fn for every reachable node in pre-order. The children of a
// leaf are not visited, including the non-empty child of a node whose other
// child was emptied by removals. Returning false from fn skips the node's
// subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	walk(t.root, fn)
}

func walk(n *Node, fn func(n *Node) bool) {
	if !fn(n) || n.IsLeaf() {
		return
	}
	walk(n.left, fn)
	walk(n.right, fn)
}

// Stats collects statistics about the tree structure.
func (t *Tree) Stats() Stats {
	st := Stats{
		Triangles:      t.Len(),
		DeferredSplits: t.deferredSplits,
		InsertSplits:   t.insertSplits,
	}

	t.Walk(func(n *Node) bool {
		st.Nodes++
		if n.depth > st.MaxDepth {
			st.MaxDepth = n.depth
		}
		if n.IsLeaf() {
			st.Leaves++
			st.References += len(n.items)
			st.AvgDepth += float64(n.depth)
		}
		return true
	})

	if st.Leaves > 0 {
		st.AvgDepth /= float64(st.Leaves)
	}
	return st
}

// Validate checks the structural invariants of every node holding
// triangles: non-empty nodes are boxed by exactly the union of their
// triangles, and non-empty children split the parent list without overlap.
// Unlike Walk it descends below leaves into children that still hold
// triangles, since removals keep updating them.
func (t *Tree) Validate() error {
	if t.arena.len() != len(t.root.items) {
		return fmt.Errorf("%w: %d in arena, %d at root", ErrArenaMismatch, t.arena.len(), len(t.root.items))
	}
	return t.validateSubtree(t.root)
}

func (t *Tree) validateSubtree(n *Node) error {
	if err := t.validateNode(n); err != nil {
		return err
	}
	for _, child := range [2]*Node{n.left, n.right} {
		if child == nil || len(child.items) == 0 {
			continue
		}
		if err := t.validateSubtree(child); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) validateNode(n *Node) error {
	for _, id := range n.items {
		if int(id) >= len(t.arena.tris) || t.arena.get(id) == nil {
			return fmt.Errorf("%w: slot %d at depth %d", ErrDanglingSlot, id, n.depth)
		}
	}

	if len(n.items) == 0 {
		if n.hasBox {
			return fmt.Errorf("%w: empty node at depth %d has a box", ErrBoxMismatch, n.depth)
		}
		return nil
	}

	if want := t.boundsOf(n.items); !n.hasBox || n.box != want {
		return fmt.Errorf("%w: depth %d has %v, want %v", ErrBoxMismatch, n.depth, n.box, want)
	}

	if n.left == nil || n.right == nil {
		return nil
	}

	// Children never share a triangle and never hold one the parent lacks.
	// A leaf may hold triangles added after its children stopped being
	// consulted, so only internal nodes must be split exactly.
	seen := make(map[int32]int, len(n.left.items)+len(n.right.items))
	for _, id := range n.left.items {
		seen[id]++
	}
	for _, id := range n.right.items {
		seen[id]++
	}
	for id, count := range seen {
		if count != 1 || !slices.Contains(n.items, id) {
			return fmt.Errorf("%w: slot %d appears %d times below depth %d", ErrPartition, id, count, n.depth)
		}
	}
	if !n.IsLeaf() && len(seen) != len(n.items) {
		return fmt.Errorf("%w: depth %d has %d triangles, children hold %d + %d",
			ErrPartition, n.depth, len(n.items), len(n.left.items), len(n.right.items))
	}
	return nil
}
