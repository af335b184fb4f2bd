package kdtree

import (
	"errors"
	gomath "math"
	"math/rand"
	"testing"

	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

// trianglesOf extracts one triangle per index triple, sharing vertices.
func trianglesOf(raw mesh.RawMesh) []*mesh.Triangle {
	verts := make(map[int]*mesh.Vertex)
	vertex := func(i int) *mesh.Vertex {
		if v, ok := verts[i]; ok {
			return v
		}
		v := mesh.NewVertex(i, raw.Positions[i])
		verts[i] = v
		return v
	}

	var tris []*mesh.Triangle
	for i := 0; i < len(raw.Indices); i += 3 {
		tris = append(tris, mesh.NewTriangle(i,
			vertex(raw.Indices[i]), vertex(raw.Indices[i+1]), vertex(raw.Indices[i+2])))
	}
	return tris
}

func wavyGrid(cols, rows int) mesh.RawMesh {
	return mesh.Grid(cols, rows, 1, func(x, z float32) float32 {
		return float32(gomath.Sin(float64(x))*0.5 + gomath.Cos(float64(z))*0.25)
	})
}

func newTri(index int, p0, p1, p2 math.Vec3) *mesh.Triangle {
	return mesh.NewTriangle(index,
		mesh.NewVertex(index, p0), mesh.NewVertex(index+1, p1), mesh.NewVertex(index+2, p2))
}

// floorTri is a small +Y facing triangle at (x, 0, z).
func floorTri(index int, x, z float32) *mesh.Triangle {
	return newTri(index,
		math.Vec3{X: x, Z: z},
		math.Vec3{X: x, Z: z + 1},
		math.Vec3{X: x + 1, Z: z})
}

func down(x, z float32) math.Ray {
	return math.NewRay(math.Vec3{X: x, Y: 10, Z: z}, math.Vec3{Y: -1})
}

func TestBuildEmpty(t *testing.T) {
	tree := New(DefaultConfig(), nil)

	if _, ok := tree.Root().Box(); ok {
		t.Error("empty tree should have no box")
	}
	if !tree.Root().IsLeaf() {
		t.Error("empty root should be a leaf")
	}

	_, hit, st := tree.RaycastStats(down(0, 0))
	if hit {
		t.Error("expected miss on empty tree")
	}
	if st.NodesVisited != 1 || st.TriangleTests != 0 {
		t.Errorf("unexpected traversal %+v", st)
	}
}

func TestBuildSingleTriangleIsLeafSentinel(t *testing.T) {
	tree := New(DefaultConfig(), []*mesh.Triangle{floorTri(0, 0, 0)})
	root := tree.Root()

	if root.Left() == nil || root.Right() == nil {
		t.Fatal("leaf sentinel should have two children")
	}
	if root.Left().Len() != 0 || root.Right().Len() != 0 {
		t.Error("leaf sentinel children should be empty")
	}
	if !root.IsLeaf() {
		t.Error("expected leaf")
	}
}

func TestQuadScenario(t *testing.T) {
	tris := trianglesOf(mesh.Quad(1, 0))
	tree := New(Config{MaxDepth: 50, SplitCost: 0.5}, tris)

	root := tree.Root()
	if root.IsLeaf() {
		t.Fatal("quad root should split into two leaves")
	}
	if root.SplitAxis() != math.AxisX {
		t.Errorf("split axis = %s, want X", root.SplitAxis())
	}
	// Triangle (0,2,3) has the larger X midpoint and goes left.
	if root.Left().Len() != 1 || root.Left().Triangles()[0] != tris[1] {
		t.Error("expected the second triangle in the left child")
	}

	hit, ok, st := tree.RaycastStats(down(0, 0))
	if !ok {
		t.Fatal("ray through the quad center should hit")
	}
	if hit.Triangle != tris[0] && hit.Triangle != tris[1] {
		t.Fatalf("hit unknown triangle %v", hit.Triangle)
	}
	if hit.Triangle != tris[1] {
		t.Error("left child should win when both children hit")
	}
	if hit.Point.Y != 0 {
		t.Errorf("hit height = %v, want 0", hit.Point.Y)
	}
	if st.NodesVisited != 3 {
		t.Errorf("both children should be searched, visited %d nodes", st.NodesVisited)
	}

	_, ok, st = tree.RaycastStats(math.NewRay(math.Vec3{X: 5, Y: 5, Z: 5}, math.Vec3{Y: 1}))
	if ok {
		t.Error("ray outside the quad box should miss")
	}
	if st.NodesVisited != 1 || st.TriangleTests != 0 {
		t.Errorf("box miss should stop at the root, got %+v", st)
	}
}

func TestBuildBoxesAreUnions(t *testing.T) {
	tree := New(DefaultConfig(), trianglesOf(wavyGrid(12, 9)))

	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	tree.Walk(func(n *Node) bool {
		tris := n.Triangles()
		box, ok := n.Box()
		if len(tris) == 0 {
			if ok {
				t.Errorf("empty node at depth %d has a box", n.Depth())
			}
			return true
		}
		want := tris[0].Box
		for _, tri := range tris[1:] {
			want = want.Union(tri.Box)
		}
		if !ok || box != want {
			t.Errorf("depth %d: box %v, want %v", n.Depth(), box, want)
		}
		return true
	})

	st := tree.Stats()
	if st.Triangles != 12*9*2 {
		t.Errorf("expected %d triangles, got %d", 12*9*2, st.Triangles)
	}
	if st.References != st.Triangles {
		t.Errorf("leaf references = %d, want %d", st.References, st.Triangles)
	}
	if st.Leaves < 2 || st.MaxDepth == 0 {
		t.Errorf("expected a subdivided tree, got %+v", st)
	}
}

func TestIsLeaf(t *testing.T) {
	a := floorTri(0, 0, 0)
	tree := New(DefaultConfig(), []*mesh.Triangle{a})

	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"no children", &Node{tree: tree}, true},
		{"only left", &Node{tree: tree, left: &Node{items: []int32{0}}}, true},
		{"empty left", &Node{tree: tree, left: &Node{}, right: &Node{items: []int32{0}}}, true},
		{"empty right", &Node{tree: tree, left: &Node{items: []int32{0}}, right: &Node{}}, true},
		{"both filled", &Node{tree: tree, left: &Node{items: []int32{0}}, right: &Node{items: []int32{0}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.IsLeaf(); got != tt.want {
				t.Errorf("IsLeaf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLongestAxis(t *testing.T) {
	box := func(x, y, z float32) math.AABB {
		return math.AABB{Max: math.Vec3{X: x, Y: y, Z: z}}
	}

	tests := []struct {
		name string
		box  math.AABB
		prev math.Axis
		want math.Axis
	}{
		{"x longest", box(3, 1, 1), math.NoAxis, math.AxisX},
		{"y longest", box(1, 3, 1), math.NoAxis, math.AxisY},
		{"z longest", box(1, 1, 3), math.NoAxis, math.AxisZ},
		{"tie prefers x", box(2, 2, 2), math.NoAxis, math.AxisX},
		{"tie skips previous", box(2, 2, 2), math.AxisX, math.AxisY},
		{"xz tie after x", box(2, 1, 2), math.AxisX, math.AxisZ},
		{"longest was previous", box(1, 3, 1), math.AxisY, math.AxisX},
		{"flat quad", box(2, 0, 2), math.NoAxis, math.AxisX},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := longestAxis(tt.box, tt.prev); got != tt.want {
				t.Errorf("longestAxis() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSahArea(t *testing.T) {
	b := math.AABB{Min: math.Vec3{X: -1, Y: 0, Z: -1}, Max: math.Vec3{X: 1, Y: 3, Z: 1}}
	if got := sahArea(b); got != 14 {
		t.Errorf("sahArea() = %v, want 14", got)
	}
}

func TestSplitCostGate(t *testing.T) {
	tris := trianglesOf(mesh.Quad(1, 0))
	tree := New(Config{MaxDepth: 50, SplitCost: 100}, tris)
	if !tree.Root().IsLeaf() {
		t.Error("a split cost above the node cost should keep the root a leaf")
	}
	if _, ok := tree.Raycast(down(0.5, -0.5)); !ok {
		t.Error("leaf root should still answer queries")
	}
}

func TestMaxDepth(t *testing.T) {
	tree := New(Config{MaxDepth: 2, SplitCost: 0.5}, trianglesOf(wavyGrid(16, 16)))
	st := tree.Stats()
	if st.MaxDepth > 2 {
		t.Errorf("max depth = %d, want <= 2", st.MaxDepth)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRaycastMatchesBruteForce(t *testing.T) {
	tris := trianglesOf(wavyGrid(10, 10))
	tree := New(DefaultConfig(), tris)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		x := rng.Float32()*12 - 1
		z := rng.Float32()*12 - 1
		ray := down(x, z)

		want := false
		for _, tri := range tris {
			if _, ok := tri.IntersectRay(ray); ok {
				want = true
				break
			}
		}

		hit, got := tree.Raycast(ray)
		if got != want {
			t.Fatalf("ray at (%v, %v): tree hit=%v, brute force hit=%v", x, z, got, want)
		}
		if !got {
			continue
		}
		if !hit.Triangle.Box.Expand(1e-4).Contains(hit.Point) {
			t.Fatalf("hit point %v outside triangle box %v", hit.Point, hit.Triangle.Box)
		}
	}
}

func TestRemoveAllCollapses(t *testing.T) {
	tris := trianglesOf(wavyGrid(6, 6))
	tree := New(DefaultConfig(), tris)

	for i, tri := range tris {
		if !tree.Remove(tri, tri.Midpoint()) {
			t.Fatalf("remove %d failed", i)
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("after remove %d: %v", i, err)
		}
	}

	root := tree.Root()
	if tree.Len() != 0 {
		t.Errorf("expected empty tree, %d left", tree.Len())
	}
	if !root.IsLeaf() || root.Left().Len() != 0 || root.Right().Len() != 0 {
		t.Error("root should have collapsed into a leaf sentinel")
	}
	if _, ok := root.Box(); ok {
		t.Error("empty root should have no box")
	}
	if _, ok := tree.Raycast(down(2, 2)); ok {
		t.Error("empty tree should not be hit")
	}
}

func TestRemoveShrinksBox(t *testing.T) {
	near := floorTri(0, 0, 0)
	far := floorTri(3, 10, 10)
	tree := New(DefaultConfig(), []*mesh.Triangle{near, far})

	if !tree.Remove(far, far.Midpoint()) {
		t.Fatal("remove failed")
	}
	box, ok := tree.Root().Box()
	if !ok || box != near.Box {
		t.Errorf("root box = %v, want %v", box, near.Box)
	}
	if _, ok := tree.Raycast(down(10.2, 10.2)); ok {
		t.Error("removed triangle still hit")
	}
	if _, ok := tree.Raycast(down(0.2, 0.2)); !ok {
		t.Error("remaining triangle not hit")
	}
}

func TestRemoveIgnoresUnknownTargets(t *testing.T) {
	a := floorTri(0, 0, 0)
	tree := New(DefaultConfig(), []*mesh.Triangle{a})

	if tree.Remove(floorTri(3, 0, 0), math.Vec3{X: 0.3, Z: 0.3}) {
		t.Error("removing an unknown triangle should report false")
	}
	if tree.Remove(a, math.Vec3{X: 100, Y: 100, Z: 100}) {
		t.Error("midpoint outside the tree should leave the triangle in place")
	}
	if !tree.Contains(a) || tree.Len() != 1 {
		t.Error("triangle should still be present")
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestAddIntoInternalNodes(t *testing.T) {
	tree := New(DefaultConfig(), trianglesOf(wavyGrid(8, 8)))
	before := tree.Stats()

	// Outside the grid footprint, so each is the only triangle under its
	// midpoint.
	added := []*mesh.Triangle{
		floorTri(1000, -3, -3),
		floorTri(1003, 9.5, 2),
		floorTri(1006, 3, 9.5),
	}
	for _, tri := range added {
		tree.Add(tri)
	}

	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := tree.Len(); got != before.Triangles+3 {
		t.Errorf("Len() = %d, want %d", got, before.Triangles+3)
	}
	if after := tree.Stats(); after.Nodes != before.Nodes {
		t.Errorf("adding into internal nodes changed node count %d -> %d", before.Nodes, after.Nodes)
	}
	if box, _ := tree.Root().Box(); !box.ContainsBox(added[0].Box) {
		t.Errorf("root box %v does not cover added triangle", box)
	}

	for _, tri := range added {
		mid := tri.Midpoint()
		hit, ok := tree.Raycast(down(mid.X, mid.Z))
		if !ok || hit.Triangle != tri {
			t.Errorf("added triangle at %v not hit (got %v)", mid, hit.Triangle)
		}
	}

	// Adding twice is a no-op.
	tree.Add(added[0])
	if got := tree.Len(); got != before.Triangles+3 {
		t.Errorf("duplicate add changed Len() to %d", got)
	}
}

func TestAddToLeafDefersSplit(t *testing.T) {
	tree := New(DefaultConfig(), []*mesh.Triangle{floorTri(0, 0, 0)})
	for i := 1; i <= 8; i++ {
		tree.Add(floorTri(i*3, float32(i)*10, 0))
	}

	st := tree.Stats()
	if st.Leaves != 1 || st.Nodes != 1 {
		t.Errorf("leaf should grow without splitting, got %+v", st)
	}
	if st.DeferredSplits == 0 {
		t.Error("expected deferred splits to be counted")
	}
	if tree.Root().Len() != 9 {
		t.Errorf("root holds %d triangles, want 9", tree.Root().Len())
	}
	if _, ok := tree.Raycast(down(80.2, 0.2)); !ok {
		t.Error("triangle added to the leaf not hit")
	}
}

func TestAddToLeafSplitsWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitOnInsert = true
	tree := New(cfg, []*mesh.Triangle{floorTri(0, 0, 0)})
	for i := 1; i <= 16; i++ {
		tree.Add(floorTri(i*3, float32(i)*10, 0))
	}

	st := tree.Stats()
	if st.InsertSplits == 0 || st.Leaves < 2 {
		t.Errorf("expected leaf splits on insert, got %+v", st)
	}
	if st.DeferredSplits != 0 {
		t.Errorf("no split should be deferred, got %d", st.DeferredSplits)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for i := 0; i <= 16; i++ {
		if _, ok := tree.Raycast(down(float32(i)*10+0.2, 0.2)); !ok {
			t.Errorf("triangle %d not hit after splitting", i)
		}
	}
}

func TestRemoveThenAddKeepsQueriesCorrect(t *testing.T) {
	tris := trianglesOf(mesh.Quad(1, 0))
	tree := New(DefaultConfig(), tris)

	// Removing the left triangle empties one child, so the root falls back
	// to scanning its own list.
	if !tree.Remove(tris[1], tris[1].Midpoint()) {
		t.Fatal("remove failed")
	}
	if !tree.Root().IsLeaf() {
		t.Fatal("root with an empty child should be a leaf")
	}

	replacement := newTri(6,
		math.Vec3{X: 1, Z: -1}, math.Vec3{X: -1, Z: -1}, math.Vec3{X: 1, Z: 1})
	tree.Add(replacement)

	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	hit, ok := tree.Raycast(down(0.5, -0.5))
	if !ok || hit.Triangle != replacement {
		t.Errorf("expected the replacement triangle, got %v (hit=%v)", hit.Triangle, ok)
	}
}

func TestValidateDetectsCorruptBox(t *testing.T) {
	tree := New(DefaultConfig(), trianglesOf(mesh.Quad(1, 0)))
	tree.Root().box.Max.X += 1

	if err := tree.Validate(); !errors.Is(err, ErrBoxMismatch) {
		t.Errorf("expected ErrBoxMismatch, got %v", err)
	}
}

func TestValidateChecksChildrenBelowLeaves(t *testing.T) {
	tree := New(DefaultConfig(), trianglesOf(wavyGrid(6, 6)))
	root := tree.Root()
	if root.IsLeaf() {
		t.Fatal("expected an internal root")
	}

	for _, tri := range root.Left().Triangles() {
		if !tree.Remove(tri, tri.Midpoint()) {
			t.Fatalf("remove %d failed", tri.Index)
		}
	}
	if !root.IsLeaf() || root.Right().Len() == 0 {
		t.Fatal("expected a leaf root over a non-empty right child")
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Additions stop at the leaf root, so the right child holds a subset.
	tree.Add(floorTri(999, 20, 20))
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate after add: %v", err)
	}

	root.Right().box.Max.Y += 1
	if err := tree.Validate(); !errors.Is(err, ErrBoxMismatch) {
		t.Errorf("expected ErrBoxMismatch below the leaf, got %v", err)
	}
}

func TestRaycastRejectsNonFiniteRays(t *testing.T) {
	tree := New(DefaultConfig(), trianglesOf(mesh.Quad(1, 0)))
	nan := float32(gomath.NaN())
	inf := float32(gomath.Inf(1))

	tests := []struct {
		name string
		ray  math.Ray
	}{
		{"NaN origin", math.NewRay(math.Vec3{X: nan, Y: 10}, math.Vec3{Y: -1})},
		{"NaN direction", math.NewRay(math.Vec3{Y: 10}, math.Vec3{X: nan, Y: -1})},
		{"infinite origin", math.NewRay(math.Vec3{Z: -inf, Y: 10}, math.Vec3{Y: -1})},
		{"zero direction", math.NewRay(math.Vec3{Y: 10}, math.Vec3{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, st := tree.RaycastStats(tt.ray)
			if ok {
				t.Error("non-finite ray should miss")
			}
			if st.NodesVisited != 0 {
				t.Errorf("visited %d nodes, want 0", st.NodesVisited)
			}
		})
	}

	if _, ok := tree.Raycast(down(0, 0.5)); !ok {
		t.Error("finite ray should still hit")
	}
}
