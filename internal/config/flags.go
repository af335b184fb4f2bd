package config

import "flag"

// Flags holds command-line overrides. Zero values mean "not set".
type Flags struct {
	Config        string
	Debug         bool
	LogFile       string
	MaxDepth      int
	SplitCost     float64
	SplitOnInsert bool
}

// RegisterFlags adds the config flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file")
	fs.IntVar(&f.MaxDepth, "max-depth", 0, "Maximum tree depth")
	fs.Float64Var(&f.SplitCost, "split-cost", -1, "Fixed cost added to every split")
	fs.BoolVar(&f.SplitOnInsert, "split-on-insert", false, "Split leaves during insertion")
	return f
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.MaxDepth > 0 {
		cfg.Tree.MaxDepth = f.MaxDepth
	}
	if f.SplitCost >= 0 {
		cfg.Tree.SplitCost = float32(f.SplitCost)
	}
	if f.SplitOnInsert {
		cfg.Tree.SplitOnInsert = true
	}
}
