// Package config handles meshprobe configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/kdmesh/internal/logger"
	"github.com/Faultbox/kdmesh/pkg/kdtree"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Tree    TreeConfig    `yaml:"tree"`
	Session SessionConfig `yaml:"session"`
	Camera  CameraConfig  `yaml:"camera"`
	Logging LoggingConfig `yaml:"logging"`
}

// TreeConfig holds partition tree tuning.
type TreeConfig struct {
	MaxDepth      int     `yaml:"max_depth"`
	SplitCost     float32 `yaml:"split_cost"`
	SplitOnInsert bool    `yaml:"split_on_insert"`
}

// SessionConfig holds settings for interactive query sessions.
type SessionConfig struct {
	// InsertOnHit splits the hit triangle around the hit point.
	InsertOnHit bool `yaml:"insert_on_hit"`
	// AutoFlush flushes buffers after every query instead of once per tick.
	AutoFlush bool `yaml:"auto_flush"`
}

// CameraConfig holds the virtual camera used for pixel picking.
type CameraConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	FovDeg   float32 `yaml:"fov_deg"`
	YawDeg   float32 `yaml:"yaw_deg"`
	PitchDeg float32 `yaml:"pitch_deg"`
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	JSON       bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tree: TreeConfig{
			MaxDepth:  kdtree.DefaultMaxDepth,
			SplitCost: kdtree.DefaultSplitCost,
		},
		Session: SessionConfig{
			InsertOnHit: true,
		},
		Camera: CameraConfig{
			Width:    1280,
			Height:   720,
			FovDeg:   60,
			YawDeg:   45,
			PitchDeg: 45,
			Near:     0.1,
			Far:      1000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// KDTree returns the tree construction settings.
func (c TreeConfig) KDTree() kdtree.Config {
	return kdtree.Config{
		MaxDepth:      c.MaxDepth,
		SplitCost:     c.SplitCost,
		SplitOnInsert: c.SplitOnInsert,
	}
}

// FileConfig returns the log file settings, or a zero FileConfig when no
// log file is configured.
func (c LoggingConfig) FileConfig() logger.FileConfig {
	if c.LogFile == "" {
		return logger.FileConfig{}
	}
	return logger.FileConfig{
		Path:       c.LogFile,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		JSON:       c.JSON,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Tree.MaxDepth <= 0:
		return fmt.Errorf("%w: tree.max_depth must be positive, got %d", ErrInvalidConfig, c.Tree.MaxDepth)
	case c.Tree.SplitCost < 0:
		return fmt.Errorf("%w: tree.split_cost must not be negative, got %v", ErrInvalidConfig, c.Tree.SplitCost)
	case c.Camera.Width <= 0 || c.Camera.Height <= 0:
		return fmt.Errorf("%w: camera viewport %dx%d", ErrInvalidConfig, c.Camera.Width, c.Camera.Height)
	case c.Camera.FovDeg <= 0 || c.Camera.FovDeg >= 180:
		return fmt.Errorf("%w: camera.fov_deg must be in (0, 180), got %v", ErrInvalidConfig, c.Camera.FovDeg)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera clip range [%v, %v]", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	return nil
}
