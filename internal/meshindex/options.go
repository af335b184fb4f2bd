package meshindex

import (
	"go.uber.org/zap"

	"github.com/Faultbox/kdmesh/pkg/kdtree"
)

// Option configures an Index.
type Option func(*options)

type options struct {
	log  *zap.Logger
	tree kdtree.Config
	name string
}

func defaultOptions() options {
	return options{
		log:  zap.NewNop(),
		tree: kdtree.DefaultConfig(),
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithTreeConfig sets the tree construction settings.
func WithTreeConfig(cfg kdtree.Config) Option {
	return func(o *options) {
		o.tree = cfg
	}
}

// WithName sets the name used in logs and metric labels. It defaults to the
// index ID.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
