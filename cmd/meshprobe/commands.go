package main

import (
	"errors"
	"fmt"
	"io"
	gomath "math"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/kdmesh/internal/host"
	"github.com/Faultbox/kdmesh/internal/meshindex"
	"github.com/Faultbox/kdmesh/internal/picking"
	"github.com/Faultbox/kdmesh/pkg/formats"
	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

var errCheckFailed = errors.New("check failed")

func cmdInfo(args []string, out io.Writer) error {
	fs := newFlagSet("info")
	common := registerCommon(fs)
	e, err := common.parse(fs, args, out)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: meshprobe info <mesh>", errUsage)
	}

	idx, err := e.openIndex(fs.Arg(0))
	if err != nil {
		return err
	}

	st := idx.Tree().Stats()
	fmt.Fprintf(out, "Mesh:       %s\n", idx.Name())
	fmt.Fprintf(out, "Vertices:   %d\n", len(idx.Vertices()))
	fmt.Fprintf(out, "Triangles:  %d\n", len(idx.Triangles()))
	if box, ok := idx.Bounds(); ok {
		fmt.Fprintf(out, "Bounds:     %s - %s\n", formatVec(box.Min), formatVec(box.Max))
	} else {
		fmt.Fprintln(out, "Bounds:     (empty)")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Tree:")
	fmt.Fprintf(out, "  Nodes:        %d\n", st.Nodes)
	fmt.Fprintf(out, "  Leaves:       %d\n", st.Leaves)
	fmt.Fprintf(out, "  Max depth:    %d\n", st.MaxDepth)
	fmt.Fprintf(out, "  Avg depth:    %.2f\n", st.AvgDepth)
	fmt.Fprintf(out, "  Leaf entries: %d\n", st.References)

	return e.finish()
}

func cmdCheck(args []string, out io.Writer) error {
	fs := newFlagSet("check")
	grid := fs.Int("grid", 16, "Check an N x N grid of camera rays")
	common := registerCommon(fs)
	e, err := common.parse(fs, args, out)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: meshprobe check <mesh>", errUsage)
	}

	idx, err := e.openIndex(fs.Arg(0))
	if err != nil {
		return err
	}

	if err := idx.Tree().Validate(); err != nil {
		return fmt.Errorf("%w: %w", errCheckFailed, err)
	}

	cam := e.fittedCamera(idx)
	w, h := float32(e.cfg.Camera.Width), float32(e.cfg.Camera.Height)
	tris := idx.Triangles()

	hits := 0
	for _, px := range picking.PixelGrid(w, h, *grid) {
		ray := cam.ScreenRay(px[0], px[1], w, h)
		_, got := idx.Raycast(ray)
		want := bruteForceHit(tris, ray)
		if got != want {
			return fmt.Errorf("%w: pixel (%.1f, %.1f): tree hit=%v, brute force hit=%v",
				errCheckFailed, px[0], px[1], got, want)
		}
		if got {
			hits++
		}
	}

	fmt.Fprintf(out, "OK: %d triangles, %d rays, %d hits\n", len(tris), *grid**grid, hits)
	return e.finish()
}

func bruteForceHit(tris []*mesh.Triangle, r math.Ray) bool {
	for _, t := range tris {
		if _, ok := t.IntersectRay(r); ok {
			return true
		}
	}
	return false
}

func cmdCast(args []string, out io.Writer) error {
	fs := newFlagSet("cast")
	insert := fs.Bool("insert", false, "Insert a vertex at the hit point")
	output := fs.String("o", "", "Write the edited mesh to this file")
	common := registerCommon(fs)
	e, err := common.parse(fs, args, out)
	if err != nil {
		return err
	}
	if fs.NArg() != 7 {
		return fmt.Errorf("%w: meshprobe cast <mesh> ox oy oz dx dy dz", errUsage)
	}

	v, err := parseFloats(fs.Args()[1:])
	if err != nil {
		return err
	}
	ray := math.NewRay(math.Vec3{X: v[0], Y: v[1], Z: v[2]}, math.Vec3{X: v[3], Y: v[4], Z: v[5]})

	idx, err := e.openIndex(fs.Arg(0))
	if err != nil {
		return err
	}

	s := host.NewSession(idx, nil,
		host.WithLogger(e.log),
		host.WithInsertOnHit(*insert))
	res, err := s.Query(ray)
	if err != nil {
		return err
	}
	printResult(out, res)

	if err := saveIfRequested(idx, *output); err != nil {
		return err
	}
	return e.finish()
}

func cmdPick(args []string, out io.Writer) error {
	fs := newFlagSet("pick")
	insert := fs.Bool("insert", false, "Insert a vertex at the hit point")
	output := fs.String("o", "", "Write the edited mesh to this file")
	common := registerCommon(fs)
	e, err := common.parse(fs, args, out)
	if err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("%w: meshprobe pick <mesh> x y", errUsage)
	}

	px, err := parseFloats(fs.Args()[1:])
	if err != nil {
		return err
	}

	idx, err := e.openIndex(fs.Arg(0))
	if err != nil {
		return err
	}

	s := host.NewSession(idx, nil,
		host.WithLogger(e.log),
		host.WithInsertOnHit(*insert),
		host.WithCamera(e.fittedCamera(idx), e.cfg.Camera.Width, e.cfg.Camera.Height))
	res, err := s.QueryPixel(px[0], px[1])
	if err != nil {
		return err
	}
	printResult(out, res)

	if err := saveIfRequested(idx, *output); err != nil {
		return err
	}
	return e.finish()
}

func cmdInsert(args []string, out io.Writer) error {
	fs := newFlagSet("insert")
	grid := fs.Int("grid", 4, "Pick an N x N grid of pixels")
	output := fs.String("o", "", "Write the edited mesh to this file (required)")
	common := registerCommon(fs)
	e, err := common.parse(fs, args, out)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 || *output == "" {
		return fmt.Errorf("%w: meshprobe insert <mesh> -o <out>", errUsage)
	}

	idx, err := e.openIndex(fs.Arg(0))
	if err != nil {
		return err
	}
	before := len(idx.Triangles())

	target := &host.BufferTarget{}
	s := host.NewSession(idx, target,
		host.WithLogger(e.log),
		host.WithCamera(e.fittedCamera(idx), e.cfg.Camera.Width, e.cfg.Camera.Height))

	w, h := float32(e.cfg.Camera.Width), float32(e.cfg.Camera.Height)
	for _, px := range picking.PixelGrid(w, h, *grid) {
		if _, err := s.QueryPixel(px[0], px[1]); err != nil {
			return err
		}
		// One query per tick.
		s.LateUpdate()
	}

	queries, hits, flushes := s.Stats()
	e.log.Info("inserted", zap.Int("queries", queries), zap.Int("hits", hits), zap.Int("flushes", flushes))

	if err := formats.SaveMesh(*output, rawOf(target, idx)); err != nil {
		return err
	}

	fmt.Fprintf(out, "%d queries, %d hits, triangles %d -> %d, wrote %s\n",
		queries, hits, before, len(idx.Triangles()), *output)
	return e.finish()
}

// rawOf returns the last buffers pushed to target, or the index snapshot
// if nothing was flushed.
func rawOf(target *host.BufferTarget, idx *meshindex.Index) mesh.RawMesh {
	if target.Updates == 0 {
		b := idx.Snapshot()
		return mesh.RawMesh{Positions: b.Positions, Normals: b.Normals, Indices: b.Indices}
	}
	return mesh.RawMesh{Positions: target.Positions, Normals: target.Normals, Indices: target.Indices}
}

func saveIfRequested(idx *meshindex.Index, path string) error {
	if path == "" {
		return nil
	}
	return formats.SaveMesh(path, rawOf(&host.BufferTarget{}, idx))
}

func printResult(out io.Writer, res host.Result) {
	if !res.OK {
		fmt.Fprintln(out, "MISS")
		return
	}
	fmt.Fprintf(out, "HIT triangle=%d point=%s", res.Hit.Triangle.Index, formatVec(res.Hit.Point))
	if res.Vertex != nil {
		fmt.Fprintf(out, " vertex=%d", res.Vertex.Index)
	}
	fmt.Fprintln(out)
}

func formatVec(v math.Vec3) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil || gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %q is not a finite number", errUsage, a)
		}
		out[i] = float32(f)
	}
	return out, nil
}
