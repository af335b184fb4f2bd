package mesh

import "github.com/Faultbox/kdmesh/pkg/math"

// HeightFunc returns the surface height at (x, z).
type HeightFunc func(x, z float32) float32

// Flat is a HeightFunc for a plane at y = 0.
func Flat(x, z float32) float32 { return 0 }

// Grid builds a cols x rows heightfield of square tiles, two triangles per
// tile, starting at the origin and extending along +X and +Z. Triangles are
// wound so their normals face +Y on flat ground, which makes them hittable
// from above.
func Grid(cols, rows int, cell float32, height HeightFunc) RawMesh {
	if cols <= 0 || rows <= 0 {
		return RawMesh{}
	}
	if height == nil {
		height = Flat
	}

	stride := cols + 1
	positions := make([]math.Vec3, 0, stride*(rows+1))
	for z := 0; z <= rows; z++ {
		for x := 0; x <= cols; x++ {
			px := float32(x) * cell
			pz := float32(z) * cell
			positions = append(positions, math.Vec3{X: px, Y: height(px, pz), Z: pz})
		}
	}

	indices := make([]int, 0, cols*rows*6)
	for z := 0; z < rows; z++ {
		for x := 0; x < cols; x++ {
			v00 := z*stride + x
			v10 := v00 + 1
			v01 := v00 + stride
			v11 := v01 + 1
			indices = append(indices, v00, v01, v11, v00, v11, v10)
		}
	}

	// Smooth normals: accumulate area-weighted face normals per vertex.
	normals := make([]math.Vec3, len(positions))
	for i := 0; i < len(indices); i += 3 {
		a, b, c := positions[indices[i]], positions[indices[i+1]], positions[indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range indices[i : i+3] {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}

	return RawMesh{Positions: positions, Normals: normals, Indices: indices}
}

// Quad returns the two-triangle square spanning [-half, half] on X and Z at
// height y, facing +Y.
func Quad(half, y float32) RawMesh {
	up := math.Vec3{Y: 1}
	return RawMesh{
		Positions: []math.Vec3{
			{X: -half, Y: y, Z: -half},
			{X: -half, Y: y, Z: half},
			{X: half, Y: y, Z: half},
			{X: half, Y: y, Z: -half},
		},
		Normals: []math.Vec3{up, up, up, up},
		Indices: []int{0, 1, 2, 0, 2, 3},
	}
}
