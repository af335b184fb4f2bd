// Package meshindex keeps a triangle mesh, its flat buffers and a
// partition tree in sync while points are inserted into the mesh.
//
// The raw buffers are the source of truth handed to the host. Vertices are
// identified by their offset in the position buffer and never removed.
// Triangles are identified by the offset of their first entry in the index
// buffer; the live triangle list is kept ordered by that offset.
package meshindex

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/kdmesh/internal/logger"
	"github.com/Faultbox/kdmesh/pkg/kdtree"
	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

var (
	// ErrUnknownTriangle is returned when inserting into a triangle that is
	// not live in the index.
	ErrUnknownTriangle = errors.New("triangle is not part of the mesh")
	// ErrInvalidPoint is returned when inserting a point with a NaN or
	// infinite coordinate.
	ErrInvalidPoint = errors.New("point is not finite")
)

// Hit is the result of a successful raycast.
type Hit = kdtree.Hit

// Buffers is a copy of the raw mesh buffers.
type Buffers struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []int
}

// Renderable receives flushed buffers.
type Renderable interface {
	SetVertices(positions []math.Vec3)
	SetNormals(normals []math.Vec3)
	SetTriangles(indices []int)
}

// Index is a mesh with a spatial index over its triangles. It is not safe
// for concurrent use.
type Index struct {
	id   uuid.UUID
	name string
	log  *zap.Logger

	positions []math.Vec3
	normals   []math.Vec3
	indices   []int

	vertices  []*mesh.Vertex
	triangles []*mesh.Triangle
	tree      *kdtree.Tree

	updateNeeded bool
}

// New validates raw, extracts its vertices and triangles and builds the
// tree. raw is copied.
func New(raw mesh.RawMesh, opts ...Option) (*Index, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mesh: %w", err)
	}

	start := time.Now()
	raw = raw.Clone()

	idx := &Index{
		id:        uuid.New(),
		name:      o.name,
		positions: raw.Positions,
		normals:   raw.Normals,
		indices:   raw.Indices,
	}
	if idx.name == "" {
		idx.name = idx.id.String()
	}
	idx.log = o.log.With(zap.String("mesh", idx.name))

	idx.vertices = make([]*mesh.Vertex, len(idx.positions))
	for i, p := range idx.positions {
		idx.vertices[i] = mesh.NewVertex(i, p)
	}

	idx.triangles = make([]*mesh.Triangle, 0, len(idx.indices)/3)
	for i := 0; i < len(idx.indices); i += 3 {
		idx.triangles = append(idx.triangles, idx.newTriangle(i,
			idx.vertices[idx.indices[i]],
			idx.vertices[idx.indices[i+1]],
			idx.vertices[idx.indices[i+2]]))
	}

	idx.tree = kdtree.New(o.tree, idx.triangles)
	instrumentBuild(idx.name, len(idx.triangles), start)

	st := idx.tree.Stats()
	idx.log.Info("mesh index built",
		zap.Stringer("id", idx.id),
		zap.Int("vertices", len(idx.vertices)),
		zap.Int("triangles", len(idx.triangles)),
		zap.Int("nodes", st.Nodes),
		zap.Int("leaves", st.Leaves),
		zap.Int("max_depth", st.MaxDepth),
		zap.Duration("took", time.Since(start)),
	)
	return idx, nil
}

func (idx *Index) newTriangle(offset int, v0, v1, v2 *mesh.Vertex) *mesh.Triangle {
	t := mesh.NewTriangle(offset, v0, v1, v2)
	v0.Attach(t)
	v1.Attach(t)
	v2.Attach(t)
	return t
}

// ID returns the index identity.
func (idx *Index) ID() uuid.UUID {
	return idx.id
}

// Name returns the name used in logs and metrics.
func (idx *Index) Name() string {
	return idx.name
}

// Tree returns the partition tree. Callers must not mutate it.
func (idx *Index) Tree() *kdtree.Tree {
	return idx.tree
}

// Raycast returns the first triangle hit by r, in tree order.
func (idx *Index) Raycast(r math.Ray) (Hit, bool) {
	hit, ok, st := idx.tree.RaycastStats(r)
	instrumentRaycast(idx.name, ok, st.NodesVisited)

	if ce := idx.log.Check(zap.DebugLevel, "raycast"); ce != nil {
		fields := []zap.Field{
			logger.Ray("ray", r),
			zap.Bool("hit", ok),
			zap.Int("nodes_visited", st.NodesVisited),
			zap.Int("triangle_tests", st.TriangleTests),
		}
		if ok {
			fields = append(fields, zap.Int("triangle", hit.Triangle.Index), logger.Vec3("point", hit.Point))
		}
		ce.Write(fields...)
	}
	return hit, ok
}

// InsertAtHit adds point as a new vertex and replaces tri with the three
// triangles fanning from it to tri's edges. point is usually a hit point on
// tri but only its finiteness is checked. The new vertex copies V0's
// normal.
//
// The replacement triangles keep tri's winding and are appended at the end
// of the index buffer; triangles after tri shift down by one slot.
func (idx *Index) InsertAtHit(point math.Vec3, tri *mesh.Triangle) (*mesh.Vertex, error) {
	pos, ok := idx.livePosition(tri)
	if !ok {
		return nil, ErrUnknownTriangle
	}
	if !point.IsFinite() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, point)
	}

	v := mesh.NewVertex(len(idx.positions), point)
	idx.positions = append(idx.positions, point)
	if len(idx.normals) > 0 {
		idx.normals = append(idx.normals, idx.normals[tri.V0.Index])
	}
	idx.vertices = append(idx.vertices, v)

	idx.removeTriangle(pos, tri)

	v0, v1, v2 := tri.V0, tri.V1, tri.V2
	for _, edge := range [3][2]*mesh.Vertex{{v0, v1}, {v1, v2}, {v2, v0}} {
		offset := len(idx.indices)
		idx.indices = append(idx.indices, v.Index, edge[0].Index, edge[1].Index)

		t := idx.newTriangle(offset, v, edge[0], edge[1])
		idx.triangles = append(idx.triangles, t)
		idx.tree.Add(t)
	}

	idx.updateNeeded = true
	instrumentInsert(idx.name, len(idx.triangles))

	idx.log.Debug("point inserted",
		zap.Int("vertex", v.Index),
		zap.Int("replaced", tri.Index),
		logger.Vec3("point", point),
		zap.Int("triangles", len(idx.triangles)),
	)
	return v, nil
}

// InsertAtIndex is InsertAtHit for the live triangle whose first index
// buffer entry is at offset.
func (idx *Index) InsertAtIndex(point math.Vec3, offset int) (*mesh.Vertex, error) {
	tri, ok := idx.Triangle(offset)
	if !ok {
		return nil, fmt.Errorf("%w: offset %d", ErrUnknownTriangle, offset)
	}
	return idx.InsertAtHit(point, tri)
}

// removeTriangle drops the live triangle at pos from the buffers, the
// vertex adjacency lists and the tree.
func (idx *Index) removeTriangle(pos int, tri *mesh.Triangle) {
	// The tree locates tri by the midpoint it was inserted with.
	if !idx.tree.Remove(tri, tri.Midpoint()) {
		idx.log.Warn("triangle not found in tree", zap.Int("triangle", tri.Index))
	}

	offset := tri.Index
	idx.indices = slices.Delete(idx.indices, offset, offset+3)
	idx.triangles = slices.Delete(idx.triangles, pos, pos+1)
	for _, t := range idx.triangles[pos:] {
		t.Index -= 3
	}

	for _, v := range tri.Vertices() {
		v.Detach(tri)
	}
}

// livePosition returns the position of tri in the live list.
func (idx *Index) livePosition(tri *mesh.Triangle) (int, bool) {
	if tri == nil {
		return 0, false
	}
	pos, found := idx.search(tri.Index)
	if !found || idx.triangles[pos] != tri {
		return 0, false
	}
	return pos, true
}

func (idx *Index) search(offset int) (int, bool) {
	return slices.BinarySearchFunc(idx.triangles, offset, func(t *mesh.Triangle, target int) int {
		return t.Index - target
	})
}

// Triangle returns the live triangle whose first index buffer entry is at
// offset.
func (idx *Index) Triangle(offset int) (*mesh.Triangle, bool) {
	pos, found := idx.search(offset)
	if !found {
		return nil, false
	}
	return idx.triangles[pos], true
}

// Triangles returns the live triangles ordered by index buffer offset.
func (idx *Index) Triangles() []*mesh.Triangle {
	return slices.Clone(idx.triangles)
}

// Vertices returns every vertex ordered by position buffer offset.
func (idx *Index) Vertices() []*mesh.Vertex {
	return slices.Clone(idx.vertices)
}

// Bounds returns the box around the live triangles. ok is false when the
// mesh has none.
func (idx *Index) Bounds() (box math.AABB, ok bool) {
	return idx.tree.Root().Box()
}

// IsUpdateNeeded reports whether the buffers changed since the last flush.
func (idx *Index) IsUpdateNeeded() bool {
	return idx.updateNeeded
}

// Snapshot returns a copy of the raw buffers without clearing the update
// flag.
func (idx *Index) Snapshot() Buffers {
	return Buffers{
		Positions: slices.Clone(idx.positions),
		Normals:   slices.Clone(idx.normals),
		Indices:   slices.Clone(idx.indices),
	}
}

// Flush returns a copy of the raw buffers and clears the update flag. It
// returns false and no buffers when nothing changed.
func (idx *Index) Flush() (Buffers, bool) {
	if !idx.updateNeeded {
		return Buffers{}, false
	}
	idx.updateNeeded = false
	instrumentFlush(idx.name)
	return idx.Snapshot(), true
}

// FlushTo pushes the buffers into r if they changed. It reports whether r
// was updated.
func (idx *Index) FlushTo(r Renderable) bool {
	b, ok := idx.Flush()
	if !ok {
		return false
	}
	r.SetVertices(b.Positions)
	r.SetNormals(b.Normals)
	r.SetTriangles(b.Indices)

	idx.log.Debug("buffers flushed",
		zap.Int("vertices", len(b.Positions)),
		zap.Int("indices", len(b.Indices)),
	)
	return true
}
