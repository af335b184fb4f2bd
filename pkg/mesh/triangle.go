package mesh

import (
	gomath "math"

	"github.com/Faultbox/kdmesh/pkg/math"
)

// parallelEpsilon bounds |n·d| / |n| below which a ray is treated as
// parallel to the triangle plane.
const parallelEpsilon = 1e-6

// Triangle references three vertices of the mesh.
//
// Index is the offset of the triangle's first entry in the flat index
// buffer, so it is always a multiple of 3. It shifts whenever an earlier
// triangle is removed from the buffer.
type Triangle struct {
	Index      int
	V0, V1, V2 *Vertex
	Box        math.AABB
}

// NewTriangle creates a triangle and computes its bounding box.
func NewTriangle(index int, v0, v1, v2 *Vertex) *Triangle {
	return &Triangle{
		Index: index,
		V0:    v0,
		V1:    v1,
		V2:    v2,
		Box:   math.NewAABBFromPoints(v0.Position, v1.Position, v2.Position),
	}
}

// Vertices returns the three vertices in winding order.
func (t *Triangle) Vertices() [3]*Vertex {
	return [3]*Vertex{t.V0, t.V1, t.V2}
}

// Midpoint returns the centroid of the three vertex positions.
func (t *Triangle) Midpoint() math.Vec3 {
	s := t.V0.Position.Add(t.V1.Position).Add(t.V2.Position)
	return math.Vec3{X: s.X / 3, Y: s.Y / 3, Z: s.Z / 3}
}

// Normal returns the unit face normal, (V1-V0)×(V2-V0) normalized.
func (t *Triangle) Normal() math.Vec3 {
	return t.edgeCross().Normalize()
}

// Area returns the surface area.
func (t *Triangle) Area() float32 {
	return t.edgeCross().Length() / 2
}

func (t *Triangle) edgeCross() math.Vec3 {
	u := t.V1.Position.Sub(t.V0.Position)
	v := t.V2.Position.Sub(t.V0.Position)
	return u.Cross(v)
}

// IntersectRay returns the point where r crosses the triangle.
//
// The test is single-sided: rays whose origin lies behind the plane, with
// respect to the (V1-V0)×(V2-V0) normal, never hit. Degenerate triangles,
// rays parallel to the plane and rays with NaN components never hit either.
func (t *Triangle) IntersectRay(r math.Ray) (math.Vec3, bool) {
	p0 := t.V0.Position
	n := t.edgeCross()

	nLen := n.Length()
	if nLen == 0 {
		return math.Vec3{}, false
	}

	// Rejections are negated so NaN inputs miss.
	a := -n.Dot(r.Origin.Sub(p0))
	if !(a <= 0) {
		return math.Vec3{}, false
	}

	b := n.Dot(r.Direction)
	if !(gomath.Abs(float64(b)) > parallelEpsilon*float64(nLen)) {
		return math.Vec3{}, false
	}

	dist := a / b
	if !(dist >= 0) {
		return math.Vec3{}, false
	}

	point := r.Origin.Add(r.Direction.Scale(dist))
	if !t.Contains(point) {
		return math.Vec3{}, false
	}
	return point, true
}

// Contains reports whether p, assumed to lie in the triangle's plane, falls
// inside the triangle using barycentric coordinates. The result is
// unspecified for degenerate triangles.
func (t *Triangle) Contains(p math.Vec3) bool {
	p0 := t.V0.Position
	u := t.V1.Position.Sub(p0)
	v := t.V2.Position.Sub(p0)

	uu := u.Dot(u)
	uv := u.Dot(v)
	vv := v.Dot(v)

	w := p.Sub(p0)
	wu := w.Dot(u)
	wv := w.Dot(v)

	d := uv*uv - uu*vv

	s := (uv*wv - vv*wu) / d
	if !(s >= 0 && s <= 1) {
		return false
	}

	tt := (uv*wu - uu*wv) / d
	if !(tt >= 0 && s+tt <= 1) {
		return false
	}
	return true
}
