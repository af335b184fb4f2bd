package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/kdmesh/internal/host"
	"github.com/Faultbox/kdmesh/pkg/formats"
	"github.com/Faultbox/kdmesh/pkg/math"
)

const sessionHelp = `Commands:
  cast ox oy oz dx dy dz   Cast a ray
  pick x y                 Cast through a camera pixel
  tick                     End the frame: flush changed buffers
  stats                    Print query counters
  save <file>              Write the last flushed mesh
  quit                     Stop reading`

func cmdSession(args []string, in io.Reader, out io.Writer) error {
	fs := newFlagSet("session")
	metricsAddr := fs.String("metrics-addr", "", "Serve /metrics on this address while the session runs")
	common := registerCommon(fs)
	e, err := common.parse(fs, args, out)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: meshprobe session <mesh>", errUsage)
	}

	idx, err := e.openIndex(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *metricsAddr != "" {
		addr, err := serveAdmin(ctx, *metricsAddr, e.log)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "metrics on http://%s/metrics\n", addr)
	}

	target := &host.BufferTarget{}
	s := host.NewSession(idx, target,
		host.WithLogger(e.log),
		host.WithInsertOnHit(e.cfg.Session.InsertOnHit),
		host.WithAutoFlush(e.cfg.Session.AutoFlush),
		host.WithCamera(e.fittedCamera(idx), e.cfg.Camera.Width, e.cfg.Camera.Height))

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		quit, err := sessionCommand(s, target, fields, out)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if quit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}

	return e.finish()
}

func sessionCommand(s *host.Session, target *host.BufferTarget, fields []string, out io.Writer) (quit bool, err error) {
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "cast":
		if len(args) != 6 {
			return false, fmt.Errorf("cast needs 6 numbers")
		}
		v, err := parseFloats(args)
		if err != nil {
			return false, err
		}
		res, err := s.Query(math.NewRay(math.Vec3{X: v[0], Y: v[1], Z: v[2]}, math.Vec3{X: v[3], Y: v[4], Z: v[5]}))
		if err != nil {
			return false, err
		}
		printResult(out, res)

	case "pick":
		if len(args) != 2 {
			return false, fmt.Errorf("pick needs 2 numbers")
		}
		v, err := parseFloats(args)
		if err != nil {
			return false, err
		}
		res, err := s.QueryPixel(v[0], v[1])
		if err != nil {
			return false, err
		}
		printResult(out, res)

	case "tick":
		if s.LateUpdate() {
			fmt.Fprintf(out, "flushed %d vertices, %d indices\n", len(target.Positions), len(target.Indices))
		} else {
			fmt.Fprintln(out, "clean")
		}

	case "stats":
		queries, hits, flushes := s.Stats()
		fmt.Fprintf(out, "queries=%d hits=%d flushes=%d triangles=%d\n",
			queries, hits, flushes, len(s.Index().Triangles()))

	case "save":
		if len(args) != 1 {
			return false, fmt.Errorf("save needs a file name")
		}
		if err := formats.SaveMesh(args[0], rawOf(target, s.Index())); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "wrote %s\n", args[0])

	case "help":
		fmt.Fprintln(out, sessionHelp)

	case "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}
