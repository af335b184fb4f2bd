// Package picking turns screen positions into world-space rays.
package picking

import (
	gomath "math"

	"github.com/Faultbox/kdmesh/pkg/math"
)

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates with the origin at the top left,
// viewportW/H are viewport dimensions. invViewProj is the inverse of the
// view-projection matrix. The ray starts on the near plane and its
// direction is normalized.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) math.Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // flip Y

	near := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1, 1})

	return math.NewRay(near, far.Sub(near))
}

func unproject(inv math.Mat4, ndc math.Vec4) math.Vec3 {
	p := inv.MulVec4(ndc)
	if p[3] != 0 {
		return math.Vec3{X: p[0] / p[3], Y: p[1] / p[3], Z: p[2] / p[3]}
	}
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// IntersectPlaneY intersects r with the horizontal plane at height planeY.
// Rays nearly parallel to the plane or pointing away from it miss.
func IntersectPlaneY(r math.Ray, planeY float32) (math.Vec3, bool) {
	if gomath.Abs(float64(r.Direction.Y)) < 0.001 {
		return math.Vec3{}, false
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return math.Vec3{}, false
	}

	p := r.At(t)
	p.Y = planeY
	return p, true
}

// PixelGrid returns the centers of an n x n grid of pixels spread evenly
// over the viewport, row by row.
func PixelGrid(viewportW, viewportH float32, n int) [][2]float32 {
	if n <= 0 {
		return nil
	}
	out := make([][2]float32, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			out = append(out, [2]float32{
				(float32(col) + 0.5) * viewportW / float32(n),
				(float32(row) + 0.5) * viewportH / float32(n),
			})
		}
	}
	return out
}
