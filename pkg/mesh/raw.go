package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/kdmesh/pkg/math"
)

// Raw mesh validation errors.
var (
	ErrIndexCount  = errors.New("index count is not a multiple of 3")
	ErrIndexRange  = errors.New("index out of range")
	ErrNormalCount = errors.New("normal count does not match position count")
)

// RawMesh is the flat buffer layout shared with the host: positions,
// normals parallel to positions, and a triangle list where each run of
// three indices is one triangle.
type RawMesh struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []int
}

// Validate checks the buffer layout. Normals may be empty.
func (m RawMesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrIndexCount, len(m.Indices))
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals, %d positions", ErrNormalCount, len(m.Normals), len(m.Positions))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Positions) {
			return fmt.Errorf("%w: indices[%d] = %d, %d positions", ErrIndexRange, i, idx, len(m.Positions))
		}
	}
	return nil
}

// TriangleCount returns the number of triangles in the index buffer.
func (m RawMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Clone returns a deep copy.
func (m RawMesh) Clone() RawMesh {
	return RawMesh{
		Positions: append([]math.Vec3(nil), m.Positions...),
		Normals:   append([]math.Vec3(nil), m.Normals...),
		Indices:   append([]int(nil), m.Indices...),
	}
}

// Bounds returns the box enclosing every position.
func (m RawMesh) Bounds() math.AABB {
	return math.NewAABBFromPoints(m.Positions...)
}

// Transform returns a copy with positions transformed by xf and normals by
// its rotational part.
func (m RawMesh) Transform(xf math.Mat4) RawMesh {
	out := m.Clone()
	for i, p := range out.Positions {
		out.Positions[i] = xf.TransformPoint(p)
	}
	for i, n := range out.Normals {
		out.Normals[i] = xf.TransformDirection(n).Normalize()
	}
	return out
}
