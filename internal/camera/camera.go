// Package camera provides an orbit camera for viewing and picking meshes.
package camera

import (
	gomath "math"

	"github.com/Faultbox/kdmesh/internal/picking"
	"github.com/Faultbox/kdmesh/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates around Center.
	Distance float32
	Pitch    float32 // vertical angle, radians
	Yaw      float32 // horizontal angle, radians

	// Projection.
	FovY float32 // radians
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10,
		Pitch:           0.5,
		FovY:            float32(gomath.Pi / 3),
		Near:            0.1,
		Far:             1000,
		MinDistance:     0.01,
		MaxDistance:     1e6,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	pitch, yaw := float64(c.Pitch), float64(c.Yaw)
	offset := math.Vec3{
		X: c.Distance * float32(gomath.Cos(pitch)*gomath.Sin(yaw)),
		Y: c.Distance * float32(gomath.Sin(pitch)),
		Z: c.Distance * float32(gomath.Cos(pitch)*gomath.Cos(yaw)),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for a viewport with
// the given aspect ratio (width / height).
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// ScreenRay returns the world-space ray through pixel (x, y) of a
// width x height viewport.
func (c *OrbitCamera) ScreenRay(x, y, width, height float32) math.Ray {
	viewProj := c.ProjectionMatrix(width / height).Mul(c.ViewMatrix())
	return picking.ScreenToRay(x, y, width, height, viewProj.Inverse())
}

// HandleDrag updates rotation based on a drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on a scroll delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(center math.Vec3) {
	c.Center = center
}

// FitToBounds centers the camera on box and backs off until the box's
// bounding sphere fills the vertical field of view. The far plane grows if
// the box would be clipped. Rotation is kept.
func (c *OrbitCamera) FitToBounds(box math.AABB) {
	c.Center = box.Center()

	radius := box.Extents().Length()
	if radius == 0 {
		radius = 1
	}

	half := gomath.Sin(float64(c.FovY) / 2)
	c.Distance = clamp(radius/float32(half)*1.1, c.MinDistance, c.MaxDistance)

	if need := c.Distance + 2*radius; c.Far < need {
		c.Far = need
	}
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
