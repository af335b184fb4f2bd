// Package host drives a mesh index the way an interactive host would:
// queries arrive one at a time, hits split the mesh, and changed buffers are
// pushed to a renderable once per tick.
package host

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/kdmesh/internal/camera"
	"github.com/Faultbox/kdmesh/internal/logger"
	"github.com/Faultbox/kdmesh/internal/meshindex"
	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

// ErrNoCamera is returned by QueryPixel when the session has no camera.
var ErrNoCamera = errors.New("session has no camera")

// Result describes one query.
type Result struct {
	Hit meshindex.Hit
	OK  bool
	// Vertex is the vertex inserted at the hit point, if any.
	Vertex *mesh.Vertex
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithInsertOnHit controls whether hits split the hit triangle. It is on
// by default.
func WithInsertOnHit(on bool) Option {
	return func(s *Session) {
		s.insertOnHit = on
	}
}

// WithAutoFlush flushes after every query that changed the mesh instead of
// waiting for LateUpdate.
func WithAutoFlush(on bool) Option {
	return func(s *Session) {
		s.autoFlush = on
	}
}

// WithCamera enables QueryPixel for a width x height viewport.
func WithCamera(cam *camera.OrbitCamera, width, height int) Option {
	return func(s *Session) {
		s.cam = cam
		s.width = float32(width)
		s.height = float32(height)
	}
}

// Session connects an index to a renderable.
type Session struct {
	index  *meshindex.Index
	target meshindex.Renderable
	log    *zap.Logger

	insertOnHit bool
	autoFlush   bool

	cam           *camera.OrbitCamera
	width, height float32

	queries, hits, flushes int
}

// NewSession creates a session. target receives flushed buffers and may be
// nil, in which case flushes only clear the index's update flag.
func NewSession(index *meshindex.Index, target meshindex.Renderable, opts ...Option) *Session {
	s := &Session{
		index:       index,
		target:      target,
		log:         zap.NewNop(),
		insertOnHit: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the session's mesh index.
func (s *Session) Index() *meshindex.Index {
	return s.index
}

// Query casts r against the mesh and, on a hit, inserts a vertex at the hit
// point when insertion is enabled.
func (s *Session) Query(r math.Ray) (Result, error) {
	s.queries++

	hit, ok := s.index.Raycast(r)
	if !ok {
		s.log.Info("MISS", logger.Ray("ray", r))
		return Result{}, nil
	}

	s.hits++
	s.log.Info("HIT",
		zap.Int("triangle", hit.Triangle.Index),
		logger.Vec3("point", hit.Point),
	)

	res := Result{Hit: hit, OK: true}
	if !s.insertOnHit {
		return res, nil
	}

	v, err := s.index.InsertAtHit(hit.Point, hit.Triangle)
	if err != nil {
		return res, fmt.Errorf("inserting at hit: %w", err)
	}
	res.Vertex = v

	if s.autoFlush {
		s.LateUpdate()
	}
	return res, nil
}

// QueryPixel is Query for the ray through pixel (x, y) of the session
// camera.
func (s *Session) QueryPixel(x, y float32) (Result, error) {
	if s.cam == nil {
		return Result{}, ErrNoCamera
	}
	return s.Query(s.cam.ScreenRay(x, y, s.width, s.height))
}

// LateUpdate flushes the index into the target if the mesh changed since
// the last flush. It reports whether a flush happened.
func (s *Session) LateUpdate() bool {
	if s.target == nil {
		if _, ok := s.index.Flush(); !ok {
			return false
		}
	} else if !s.index.FlushTo(s.target) {
		return false
	}
	s.flushes++
	return true
}

// Stats reports how many queries ran, how many hit, and how many flushes
// reached the target.
func (s *Session) Stats() (queries, hits, flushes int) {
	return s.queries, s.hits, s.flushes
}
