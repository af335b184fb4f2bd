// Package mesh provides the vertex and triangle primitives indexed by the
// partition tree, and the flat buffer layout they are extracted from.
package mesh

import (
	"slices"

	"github.com/Faultbox/kdmesh/pkg/math"
)

// Vertex is a position in the raw position buffer.
// Index is the vertex's offset in that buffer and never changes.
type Vertex struct {
	Index    int
	Position math.Vec3

	// Triangles lists the live triangles referencing this vertex.
	Triangles []*Triangle
}

// NewVertex creates a vertex with no adjacent triangles.
func NewVertex(index int, position math.Vec3) *Vertex {
	return &Vertex{Index: index, Position: position}
}

// Attach records t as using this vertex.
func (v *Vertex) Attach(t *Triangle) {
	v.Triangles = append(v.Triangles, t)
}

// Detach forgets t. Unknown triangles are ignored.
func (v *Vertex) Detach(t *Triangle) {
	if i := slices.Index(v.Triangles, t); i >= 0 {
		v.Triangles = slices.Delete(v.Triangles, i, i+1)
	}
}
