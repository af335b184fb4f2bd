package math

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3 // Normalized direction
}

// NewRay creates a ray, normalizing the direction.
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IsFinite reports whether the ray can be traced: a finite origin and a
// finite, non-zero direction.
func (r Ray) IsFinite() bool {
	return r.Origin.IsFinite() && r.Direction.IsFinite() && r.Direction != (Vec3{})
}
