package math

import gomath "math"

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABBFromPoints returns the smallest box enclosing every point.
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box = box.Encapsulate(p)
	}
	return box
}

// Encapsulate returns the box grown to include p.
func (b AABB) Encapsulate(p Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the box enclosing both b and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Size returns the extent along each axis.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Extents returns half the size.
func (b AABB) Extents() Vec3 {
	return b.Size().Scale(0.5)
}

// Center returns the center point.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Expand returns the box grown by amount on every side.
func (b AABB) Expand(amount float32) AABB {
	e := Vec3{amount, amount, amount}
	return AABB{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// Contains reports whether p lies inside the box, faces included.
func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBox reports whether other lies entirely inside b.
func (b AABB) ContainsBox(other AABB) bool {
	return b.Contains(other.Min) && b.Contains(other.Max)
}

// IntersectRay tests ray intersection using the slab method.
// Returns the distance to the entry point, or to the exit point when the
// ray starts inside the box.
func (b AABB) IntersectRay(r Ray) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for axis := AxisX; axis <= AxisZ; axis++ {
		lo := b.Min.Component(axis)
		hi := b.Max.Component(axis)
		origin := r.Origin.Component(axis)
		dir := r.Direction.Component(axis)

		if dir == 0 {
			if !(origin >= lo && origin <= hi) {
				return 0, false
			}
			continue
		}

		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		// Negated so a NaN slab poisons tmin/tmax and the ray misses.
		if !(t1 <= tmin) {
			tmin = t1
		}
		if !(t2 >= tmax) {
			tmax = t2
		}
	}

	if !(tmax >= tmin) || !(tmax >= 0) {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
