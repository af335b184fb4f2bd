package main

import (
	"fmt"
	"io"
	gomath "math"
	"path/filepath"

	"github.com/Faultbox/kdmesh/internal/config"
	"github.com/Faultbox/kdmesh/pkg/formats"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

func cmdGen(args []string, out io.Writer) error {
	fs := newFlagSet("gen")
	cols := fs.Int("cols", 16, "Tiles along X")
	rows := fs.Int("rows", 16, "Tiles along Z")
	cell := fs.Float64("cell", 1, "Tile size")
	wave := fs.Float64("wave", 0, "Height of a sine wave over the grid (0 = flat)")
	output := fs.String("o", "", "Output file (required)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *output == "" || *cols <= 0 || *rows <= 0 || *cell <= 0 {
		return fmt.Errorf("%w: meshprobe gen -cols N -rows N -cell S [-wave A] -o <out>", errUsage)
	}

	height := mesh.Flat
	if *wave != 0 {
		amp := *wave
		height = func(x, z float32) float32 {
			return float32(amp * gomath.Sin(float64(x)*0.5) * gomath.Cos(float64(z)*0.5))
		}
	}

	raw := mesh.Grid(*cols, *rows, float32(*cell), height)
	if err := formats.SaveMesh(*output, raw); err != nil {
		return err
	}

	fmt.Fprintf(out, "wrote %s: %d vertices, %d triangles\n", *output, len(raw.Positions), raw.TriangleCount())
	return nil
}

func cmdConfig(args []string, out io.Writer) error {
	fs := newFlagSet("config")
	output := fs.String("o", "", "Save the effective config to this file instead of printing it")
	save := fs.Bool("save", false, "Save the effective config to the user config directory")
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	switch {
	case *output != "":
		if err := cfg.SaveTo(*output); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", *output)
	case *save:
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "wrote %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	default:
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		out.Write(data)
	}
	return nil
}
