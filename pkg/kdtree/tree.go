// Package kdtree implements a mutable, depth-bounded partitioning tree over
// mesh triangles.
//
// The tree is built top-down: each node splits its triangles around their
// mean midpoint on the longest axis of its box, as long as a surface area
// heuristic says the split pays off. After construction single triangles can
// be added and removed; bounding boxes are recomputed and emptied subtrees
// collapse back into leaves.
//
// Every node keeps the full list of triangles below it, even after it gains
// children. Hit-testing on internal nodes only consults the children; the
// node's own list is what lets a removal recompute the box from scratch, and
// what a node falls back to when removals empty one of its children.
//
// A Tree is not safe for concurrent use.
package kdtree

import (
	"slices"

	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

// Default tuning values.
const (
	DefaultMaxDepth  = 50
	DefaultSplitCost = 0.5
)

// Config holds construction-time tuning.
type Config struct {
	// MaxDepth caps recursion; nodes at this depth become leaves.
	MaxDepth int
	// SplitCost is the fixed cost added to a split before comparing it to
	// leaving the node whole.
	SplitCost float32
	// SplitOnInsert lets a leaf subdivide when an insertion makes a split
	// worthwhile. When false, leaves grow without bound and the rejected
	// splits are only counted in Stats.DeferredSplits.
	SplitOnInsert bool
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		MaxDepth:  DefaultMaxDepth,
		SplitCost: DefaultSplitCost,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.SplitCost < 0 {
		c.SplitCost = DefaultSplitCost
	}
	return c
}

// Hit is the result of a successful raycast.
type Hit struct {
	Triangle *mesh.Triangle
	Point    math.Vec3
}

// TraversalStats counts the work done by one raycast.
type TraversalStats struct {
	NodesVisited  int
	TriangleTests int
}

// Tree is a partitioning tree over a set of triangles.
type Tree struct {
	cfg   Config
	root  *Node
	arena arena

	deferredSplits int
	insertSplits   int
}

// New builds a tree over triangles.
func New(cfg Config, triangles []*mesh.Triangle) *Tree {
	t := &Tree{
		cfg:   cfg.withDefaults(),
		arena: newArena(len(triangles)),
	}

	ids := make([]int32, 0, len(triangles))
	for _, tri := range triangles {
		if _, dup := t.arena.lookup(tri); dup {
			continue
		}
		ids = append(ids, t.arena.put(tri))
	}

	t.root = t.build(ids, 0, math.NoAxis)
	return t
}

// Config returns the tree's tuning.
func (t *Tree) Config() Config {
	return t.cfg
}

// Root returns the root node. It is never nil.
func (t *Tree) Root() *Node {
	return t.root
}

// Len returns the number of triangles in the tree.
func (t *Tree) Len() int {
	return len(t.root.items)
}

// Contains reports whether tri is in the tree.
func (t *Tree) Contains(tri *mesh.Triangle) bool {
	_, ok := t.arena.lookup(tri)
	return ok
}

// Raycast returns the first triangle hit by r.
//
// Both children of an internal node are always searched; when both report a
// hit the left one wins. Within a leaf the first triangle in list order that
// intersects the ray wins, so the result is not necessarily the closest hit.
func (t *Tree) Raycast(r math.Ray) (Hit, bool) {
	hit, ok, _ := t.RaycastStats(r)
	return hit, ok
}

// RaycastStats is Raycast, also reporting how much of the tree was visited.
// Rays with a non-finite origin or a non-finite or zero direction miss
// without visiting any node.
func (t *Tree) RaycastStats(r math.Ray) (Hit, bool, TraversalStats) {
	var st TraversalStats
	if !r.IsFinite() {
		return Hit{}, false, st
	}
	hit, ok := t.root.raycast(r, &st)
	return hit, ok, st
}

// Add inserts tri. Adding a triangle already in the tree does nothing.
func (t *Tree) Add(tri *mesh.Triangle) {
	if t.Contains(tri) {
		return
	}
	t.root.add(t.arena.put(tri))
}

// Remove deletes tri from every node whose box contains midpoint, which
// should be the midpoint tri had when it was inserted. It reports whether
// tri is gone from the tree afterwards; unknown triangles and midpoints
// outside the tree are ignored.
func (t *Tree) Remove(tri *mesh.Triangle, midpoint math.Vec3) bool {
	id, ok := t.arena.lookup(tri)
	if !ok {
		return false
	}

	t.root.remove(id, midpoint)
	if slices.Contains(t.root.items, id) {
		return false
	}

	t.arena.release(id)
	return true
}

// build creates the subtree for ids. ids is owned by the new node.
func (t *Tree) build(ids []int32, depth int, prevAxis math.Axis) *Node {
	n := &Node{
		tree:      t,
		items:     ids,
		depth:     depth,
		prevAxis:  prevAxis,
		splitAxis: math.NoAxis,
	}
	if len(ids) == 0 {
		return n
	}

	n.box = t.boundsOf(ids)
	n.hasBox = true

	if len(ids) == 1 || depth >= t.cfg.MaxDepth {
		n.initEmptyLeaf()
		return n
	}

	plan := t.planSplit(n.box, ids, prevAxis)
	if !plan.accepted {
		n.initEmptyLeaf()
		return n
	}

	n.splitWith(plan)
	return n
}

// growLeaf evaluates a leaf that just received a triangle.
func (t *Tree) growLeaf(n *Node) {
	if len(n.items) < 2 || n.depth >= t.cfg.MaxDepth {
		return
	}

	plan := t.planSplit(n.box, n.items, n.prevAxis)
	if !plan.accepted {
		return
	}
	if !t.cfg.SplitOnInsert {
		t.deferredSplits++
		return
	}

	n.splitWith(plan)
	t.insertSplits++
}
