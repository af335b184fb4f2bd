package kdtree

import "github.com/Faultbox/kdmesh/pkg/math"

// splitPlan is the outcome of evaluating a node for subdivision.
type splitPlan struct {
	axis        math.Axis
	split       math.Vec3
	left, right []int32
	costInitial float32
	costSplit   float32
	accepted    bool
}

// planSplit partitions ids around their mean midpoint on the longest axis
// of box (skipping prevAxis) and applies the SAH gate. The returned slices
// never alias ids.
func (t *Tree) planSplit(box math.AABB, ids []int32, prevAxis math.Axis) splitPlan {
	p := splitPlan{
		axis:  longestAxis(box, prevAxis),
		split: t.meanMidpoint(ids),
	}

	for _, id := range ids {
		if goesRight(p.split, t.arena.get(id).Midpoint(), p.axis) {
			p.right = append(p.right, id)
		} else {
			p.left = append(p.left, id)
		}
	}

	p.costInitial = float32(len(ids)) * sahArea(box)
	p.costSplit = p.costInitial

	// A one-sided partition leaves the node a leaf by definition.
	if len(p.left) == 0 || len(p.right) == 0 {
		return p
	}

	leftCost := sahArea(t.boundsOf(p.left)) * float32(len(p.left))
	rightCost := sahArea(t.boundsOf(p.right)) * float32(len(p.right))
	p.costSplit = min(leftCost, rightCost)
	p.accepted = p.costSplit+t.cfg.SplitCost < p.costInitial
	return p
}

// goesRight routes a triangle to the right child when the split point is at
// least the triangle midpoint on axis. Ties go right.
func goesRight(split, midpoint math.Vec3, axis math.Axis) bool {
	return split.Component(axis) >= midpoint.Component(axis)
}

// meanMidpoint averages the midpoints of ids.
func (t *Tree) meanMidpoint(ids []int32) math.Vec3 {
	var sum math.Vec3
	inv := 1 / float32(len(ids))
	for _, id := range ids {
		sum = sum.Add(t.arena.get(id).Midpoint().Scale(inv))
	}
	return sum
}

// boundsOf returns the union of the boxes of ids. ids must not be empty.
func (t *Tree) boundsOf(ids []int32) math.AABB {
	box := t.arena.get(ids[0]).Box
	for _, id := range ids[1:] {
		box = box.Union(t.arena.get(id).Box)
	}
	return box
}

// longestAxis picks the axis with the greatest extent that was not split
// one level up, checking X, Y, Z in order. It falls back to X when the
// longest axis is the previous one.
func longestAxis(box math.AABB, prev math.Axis) math.Axis {
	e := box.Extents()
	if e.X >= e.Y && e.X >= e.Z && prev != math.AxisX {
		return math.AxisX
	}
	if e.Y >= e.X && e.Y >= e.Z && prev != math.AxisY {
		return math.AxisY
	}
	if e.Z >= e.Y && e.Z >= e.X && prev != math.AxisZ {
		return math.AxisZ
	}
	return math.AxisX
}

// sahArea is the box measure used by the cost model: twice the sum of the
// edge lengths, not the true surface area.
func sahArea(box math.AABB) float32 {
	s := box.Size()
	return 2 * (s.X + s.Y + s.Z)
}
