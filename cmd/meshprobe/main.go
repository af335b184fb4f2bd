// meshprobe is a CLI utility for building, querying and editing indexed
// triangle meshes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	gomath "math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/kdmesh/internal/camera"
	"github.com/Faultbox/kdmesh/internal/config"
	"github.com/Faultbox/kdmesh/internal/logger"
	"github.com/Faultbox/kdmesh/internal/meshindex"
	"github.com/Faultbox/kdmesh/pkg/formats"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return fmt.Errorf("%w: missing command", errUsage)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		return cmdInfo(args, stdout)
	case "check":
		return cmdCheck(args, stdout)
	case "cast":
		return cmdCast(args, stdout)
	case "pick":
		return cmdPick(args, stdout)
	case "insert":
		return cmdInsert(args, stdout)
	case "session":
		return cmdSession(args, stdin, stdout)
	case "gen":
		return cmdGen(args, stdout)
	case "config":
		return cmdConfig(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshprobe - indexed triangle mesh utility

Usage:
  meshprobe <command> [options]

Commands:
  info <mesh>                        Show mesh and tree statistics
  check <mesh>                       Validate the tree and compare raycasts with brute force
  cast <mesh> ox oy oz dx dy dz      Cast a ray, optionally inserting at the hit
  pick <mesh> x y                    Cast through a pixel of the fitted camera
  insert <mesh> -o <out>             Insert at every hit of a pixel grid and save
  session <mesh>                     Read queries from stdin, one per line
  gen -o <out>                       Generate a heightfield grid mesh
  config                             Print the effective configuration

Mesh files: .yaml, .yml, .json, .kdms

Common options:
  -config <file>     Config file (default ./meshprobe.yaml or user config dir)
  -debug             Debug logging
  -log-file <file>   Also log to a rotated file
  -max-depth <n>     Tree depth cap
  -split-cost <c>    Fixed split cost
  -split-on-insert   Let leaves split while inserting
  -metrics           Print metrics after the command

Examples:
  meshprobe gen -cols 32 -rows 32 -wave 0.5 -o terrain.kdms
  meshprobe cast terrain.kdms 4 10 4 0 -1 0
  meshprobe insert terrain.kdms -grid 8 -o edited.kdms`)
}

// env is the state shared by every command.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	out     io.Writer
	metrics bool
}

type commonFlags struct {
	config  *config.Flags
	metrics *bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		config:  config.RegisterFlags(fs),
		metrics: fs.Bool("metrics", false, "Print metrics after the command"),
	}
}

// parse parses args into fs and prepares config and logging.
func (c *commonFlags) parse(fs *flag.FlagSet, args []string, out io.Writer) (*env, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}

	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.FileConfig(), true); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	return &env{
		cfg:     cfg,
		log:     logger.Named("meshprobe"),
		out:     out,
		metrics: *c.metrics,
	}, nil
}

// finish flushes logs and prints metrics if requested.
func (e *env) finish() error {
	defer logger.Sync()
	if !e.metrics {
		return nil
	}
	return writeMetrics(e.out)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (e *env) openIndex(path string) (*meshindex.Index, error) {
	raw, err := formats.LoadMesh(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return meshindex.New(raw,
		meshindex.WithName(name),
		meshindex.WithLogger(logger.Named("meshindex")),
		meshindex.WithTreeConfig(e.cfg.Tree.KDTree()),
	)
}

// fittedCamera returns the configured camera framing the whole mesh.
func (e *env) fittedCamera(idx *meshindex.Index) *camera.OrbitCamera {
	c := e.cfg.Camera
	cam := camera.NewOrbitCamera()
	cam.FovY = radians(c.FovDeg)
	cam.Yaw = radians(c.YawDeg)
	cam.Pitch = radians(c.PitchDeg)
	cam.Near = c.Near
	cam.Far = c.Far

	if box, ok := idx.Bounds(); ok {
		cam.FitToBounds(box)
	}
	return cam
}

func radians(deg float32) float32 {
	return deg * gomath.Pi / 180
}
