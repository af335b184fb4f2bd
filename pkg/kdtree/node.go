package kdtree

import (
	gomath "math"
	"slices"

	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

// containsEpsilon is the relative slack applied when testing a triangle
// midpoint against a node box, absorbing float32 rounding in the midpoint.
const containsEpsilon = 1e-5

// Node is one box of the tree.
type Node struct {
	tree *Tree

	box    math.AABB
	hasBox bool
	items  []int32

	left, right *Node

	splitAxis  math.Axis
	splitPoint math.Vec3

	depth    int
	prevAxis math.Axis
}

// Box returns the node's bounding box. ok is false for an empty node.
func (n *Node) Box() (box math.AABB, ok bool) {
	return n.box, n.hasBox
}

// Len returns the number of triangles associated with the node.
func (n *Node) Len() int {
	return len(n.items)
}

// Triangles returns the triangles associated with the node, in list order.
func (n *Node) Triangles() []*mesh.Triangle {
	out := make([]*mesh.Triangle, len(n.items))
	for i, id := range n.items {
		out[i] = n.tree.arena.get(id)
	}
	return out
}

// Left returns the left child, or nil.
func (n *Node) Left() *Node { return n.left }

// Right returns the right child, or nil.
func (n *Node) Right() *Node { return n.right }

// Depth returns the node's distance from the root.
func (n *Node) Depth() int { return n.depth }

// SplitAxis returns the axis the node was split on, or NoAxis.
func (n *Node) SplitAxis() math.Axis { return n.splitAxis }

// SplitPoint returns the point insertions are routed around.
func (n *Node) SplitPoint() math.Vec3 { return n.splitPoint }

// IsLeaf reports whether the node answers queries from its own list: either
// child is missing or holds no triangles.
func (n *Node) IsLeaf() bool {
	return n.left == nil || n.right == nil ||
		len(n.left.items) == 0 || len(n.right.items) == 0
}

// initEmptyLeaf turns n into a leaf sentinel with two empty children.
func (n *Node) initEmptyLeaf() {
	n.left = &Node{tree: n.tree, depth: n.depth + 1, splitAxis: math.NoAxis}
	n.right = &Node{tree: n.tree, depth: n.depth + 1, splitAxis: math.NoAxis}
}

func (n *Node) splitWith(p splitPlan) {
	n.splitAxis = p.axis
	n.splitPoint = p.split
	n.left = n.tree.build(p.left, n.depth+1, p.axis)
	n.right = n.tree.build(p.right, n.depth+1, p.axis)
}

func (n *Node) raycast(r math.Ray, st *TraversalStats) (Hit, bool) {
	st.NodesVisited++

	if !n.hasBox {
		return Hit{}, false
	}
	if _, ok := n.box.IntersectRay(r); !ok {
		return Hit{}, false
	}

	if !n.IsLeaf() {
		var leftHit, rightHit Hit
		var leftOK, rightOK bool
		if len(n.left.items) > 0 {
			leftHit, leftOK = n.left.raycast(r, st)
		}
		if len(n.right.items) > 0 {
			rightHit, rightOK = n.right.raycast(r, st)
		}
		if leftOK {
			return leftHit, true
		}
		return rightHit, rightOK
	}

	for _, id := range n.items {
		st.TriangleTests++
		tri := n.tree.arena.get(id)
		if p, ok := tri.IntersectRay(r); ok {
			return Hit{Triangle: tri, Point: p}, true
		}
	}
	return Hit{}, false
}

func (n *Node) add(id int32) {
	tri := n.tree.arena.get(id)

	n.items = append(n.items, id)
	if n.hasBox {
		n.box = n.box.Union(tri.Box)
	} else {
		n.box = tri.Box
		n.hasBox = true
	}

	if n.IsLeaf() {
		n.tree.growLeaf(n)
		return
	}

	if goesRight(n.splitPoint, tri.Midpoint(), n.splitAxis) {
		n.right.add(id)
	} else {
		n.left.add(id)
	}
}

func (n *Node) remove(id int32, midpoint math.Vec3) {
	if !n.hasBox || !n.containsPoint(midpoint) {
		return
	}

	if i := slices.Index(n.items, id); i >= 0 {
		n.items = slices.Delete(n.items, i, i+1)
		if len(n.items) > 0 {
			n.box = n.tree.boundsOf(n.items)
		} else {
			n.box = math.AABB{}
			n.hasBox = false
		}
	}

	if n.left != nil && len(n.left.items) > 0 {
		n.left.remove(id, midpoint)
	}
	if n.right != nil && len(n.right.items) > 0 {
		n.right.remove(id, midpoint)
	}

	if n.left != nil && n.right != nil && len(n.left.items) == 0 && len(n.right.items) == 0 {
		n.initEmptyLeaf()
	}
}

func (n *Node) containsPoint(p math.Vec3) bool {
	scale := max(1, abs32(p.X), abs32(p.Y), abs32(p.Z))
	return n.box.Expand(containsEpsilon * scale).Contains(p)
}

func abs32(v float32) float32 {
	return float32(gomath.Abs(float64(v)))
}
