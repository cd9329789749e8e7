package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the overlay-level metrics. All Record methods are safe to
// call on a nil *Metrics, which records nothing.
type Metrics struct {
	// Construction
	ConceptsLoaded    prometheus.Gauge
	EdgesLoaded       prometheus.Gauge
	EdgesRemoved      prometheus.Gauge
	DAGValid          prometheus.Gauge
	LabelIndexSize    prometheus.Gauge
	LabelCollisions   prometheus.Gauge
	ConstructDuration prometheus.Gauge

	// Queries
	SimilarityComputations *prometheus.CounterVec
	SimilarityDuration     *prometheus.HistogramVec
	NeighborhoodSize       prometheus.Histogram
	NeighborhoodEvaluated  prometheus.Counter

	// Transports
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// NATS
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ConceptsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "ontology",
			Name:      "concepts",
			Help:      "Number of concepts in the loaded ontology",
		}),
		EdgesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "ontology",
			Name:      "edges",
			Help:      "Number of subsumption edges after sanitizing",
		}),
		EdgesRemoved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "sanitizer",
			Name:      "edges_removed",
			Help:      "Number of configured cycle-breaking edges that were found and removed",
		}),
		DAGValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "sanitizer",
			Name:      "dag_valid",
			Help:      "Whether the sanitized graph is a rooted DAG (0=no, 1=yes)",
		}),
		LabelIndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "labels",
			Name:      "entries",
			Help:      "Number of distinct normalized labels in the label index",
		}),
		LabelCollisions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "labels",
			Name:      "collisions",
			Help:      "Number of concepts whose normalized label was already taken",
		}),
		ConstructDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "overlay",
			Name:      "construct_seconds",
			Help:      "Time spent building the overlay",
		}),

		SimilarityComputations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ontosim",
				Subsystem: "similarity",
				Name:      "computations_total",
				Help:      "Similarity computations by kind (pairwise, groupwise) and status",
			},
			[]string{"kind", "status"},
		),
		SimilarityDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ontosim",
				Subsystem: "similarity",
				Name:      "duration_seconds",
				Help:      "Similarity computation duration in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"kind"},
		),
		NeighborhoodSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ontosim",
			Subsystem: "neighborhood",
			Name:      "size",
			Help:      "Number of concepts returned by neighborhood expansion",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		NeighborhoodEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ontosim",
			Subsystem: "neighborhood",
			Name:      "evaluations_total",
			Help:      "Candidate concepts scored during neighborhood expansion",
		}),

		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ontosim",
				Subsystem: "transport",
				Name:      "requests_total",
				Help:      "Requests handled by transport, operation and status",
			},
			[]string{"transport", "operation", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ontosim",
				Subsystem: "transport",
				Name:      "request_duration_seconds",
				Help:      "Request handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"transport", "operation"},
		),

		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ontosim",
			Subsystem: "nats",
			Name:      "connected",
			Help:      "NATS connection status (0=disconnected, 1=connected)",
		}),
		NATSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ontosim",
			Subsystem: "nats",
			Name:      "reconnects_total",
			Help:      "Total number of NATS reconnections",
		}),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.ConceptsLoaded,
		c.EdgesLoaded,
		c.EdgesRemoved,
		c.DAGValid,
		c.LabelIndexSize,
		c.LabelCollisions,
		c.ConstructDuration,
		c.SimilarityComputations,
		c.SimilarityDuration,
		c.NeighborhoodSize,
		c.NeighborhoodEvaluated,
		c.Requests,
		c.RequestDuration,
		c.NATSConnected,
		c.NATSReconnects,
	}
}

// RecordOntology records the size of the sanitized graph.
func (c *Metrics) RecordOntology(concepts, edges int) {
	if c == nil {
		return
	}
	c.ConceptsLoaded.Set(float64(concepts))
	c.EdgesLoaded.Set(float64(edges))
}

// RecordSanitize records the outcome of cycle breaking and DAG validation.
func (c *Metrics) RecordSanitize(removed int, dagValid bool) {
	if c == nil {
		return
	}
	c.EdgesRemoved.Set(float64(removed))
	c.DAGValid.Set(boolToFloat(dagValid))
}

// RecordLabelIndex records the label index size and the number of collisions.
func (c *Metrics) RecordLabelIndex(entries, collisions int) {
	if c == nil {
		return
	}
	c.LabelIndexSize.Set(float64(entries))
	c.LabelCollisions.Set(float64(collisions))
}

// RecordConstruct records how long construction took.
func (c *Metrics) RecordConstruct(duration time.Duration) {
	if c == nil {
		return
	}
	c.ConstructDuration.Set(duration.Seconds())
}

// RecordSimilarity records one pairwise or groupwise computation.
func (c *Metrics) RecordSimilarity(kind, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.SimilarityComputations.WithLabelValues(kind, status).Inc()
	c.SimilarityDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordNeighborhood records the result size and scoring work of one expansion.
func (c *Metrics) RecordNeighborhood(size, evaluations int) {
	if c == nil {
		return
	}
	c.NeighborhoodSize.Observe(float64(size))
	c.NeighborhoodEvaluated.Add(float64(evaluations))
}

// RecordRequest records one transport request.
func (c *Metrics) RecordRequest(transport, operation, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(transport, operation, status).Inc()
	c.RequestDuration.WithLabelValues(transport, operation).Observe(duration.Seconds())
}

// RecordNATSStatus records NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	if c == nil {
		return
	}
	c.NATSConnected.Set(boolToFloat(connected))
}

// RecordNATSReconnect records a NATS reconnection
func (c *Metrics) RecordNATSReconnect() {
	if c == nil {
		return
	}
	c.NATSReconnects.Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
