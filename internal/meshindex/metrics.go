package meshindex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	meshLabel   = "mesh"
	resultLabel = "result"

	resultHit  = "hit"
	resultMiss = "miss"
)

var (
	raycasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kdmesh_raycasts_total",
		Help: "The number of raycasts against a mesh index.",
	}, []string{
		meshLabel,
		resultLabel,
	})

	raycastNodes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kdmesh_raycast_nodes_visited",
		Help:    "The number of tree nodes visited by one raycast.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{
		meshLabel,
	})

	inserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kdmesh_inserts_total",
		Help: "The number of points inserted into a mesh.",
	}, []string{
		meshLabel,
	})

	flushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kdmesh_flushes_total",
		Help: "The number of buffer flushes handed to the host.",
	}, []string{
		meshLabel,
	})

	liveTriangles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kdmesh_live_triangles",
		Help: "The number of live triangles in a mesh.",
	}, []string{
		meshLabel,
	})

	buildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "kdmesh_build_latency",
		Help: "The time to extract triangles and build the tree.",
	}, []string{
		meshLabel,
	})
)

func instrumentRaycast(mesh string, hit bool, nodesVisited int) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	raycasts.With(prometheus.Labels{
		meshLabel:   mesh,
		resultLabel: result,
	}).Inc()

	raycastNodes.With(prometheus.Labels{
		meshLabel: mesh,
	}).Observe(float64(nodesVisited))
}

func instrumentInsert(mesh string, triangles int) {
	inserts.With(prometheus.Labels{meshLabel: mesh}).Inc()
	liveTriangles.With(prometheus.Labels{meshLabel: mesh}).Set(float64(triangles))
}

func instrumentFlush(mesh string) {
	flushes.With(prometheus.Labels{meshLabel: mesh}).Inc()
}

func instrumentBuild(mesh string, triangles int, start time.Time) {
	buildLatency.With(prometheus.Labels{
		meshLabel: mesh,
	}).Observe(time.Since(start).Seconds())

	liveTriangles.With(prometheus.Labels{meshLabel: mesh}).Set(float64(triangles))
}
