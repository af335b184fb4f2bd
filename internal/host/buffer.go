package host

import "github.com/Faultbox/kdmesh/pkg/math"

// BufferTarget is a Renderable that keeps the last buffers it received.
type BufferTarget struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []int
	// Updates counts SetTriangles calls.
	Updates int
}

func (b *BufferTarget) SetVertices(positions []math.Vec3) { b.Positions = positions }
func (b *BufferTarget) SetNormals(normals []math.Vec3)    { b.Normals = normals }

func (b *BufferTarget) SetTriangles(indices []int) {
	b.Indices = indices
	b.Updates++
}
