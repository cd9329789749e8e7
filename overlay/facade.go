package overlay

import (
	"log/slog"
	"time"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/similarity"
)

// Result is a similarity score or the reason it could not be computed.
// Err, when set, wraps errors.ErrSimilarity.
type Result struct {
	Score float64
	Err   error
}

// OK reports whether the score was computed.
func (r Result) OK() bool {
	return r.Err == nil
}

// OrZero returns the score, or 0 when the computation failed.
func (r Result) OrZero() float64 {
	if r.Err != nil {
		return 0
	}
	return r.Score
}

// Similarity answers pairwise and groupwise queries with the measure and
// aggregation it was built with.
type Similarity struct {
	scorer  Scorer
	cfg     similarity.Config
	metrics *metric.Metrics
	logger  *slog.Logger
}

// NewSimilarity creates the facade. cfg is validated here so that per-call
// failures are only ever about the concepts.
func NewSimilarity(scorer Scorer, cfg similarity.Config, metrics *metric.Metrics, logger *slog.Logger) (*Similarity, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Similarity{
		scorer:  scorer,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With("component", "similarity"),
	}, nil
}

// Config returns the measure and aggregation in use.
func (s *Similarity) Config() similarity.Config {
	return s.cfg
}

// Pairwise scores a against b.
func (s *Similarity) Pairwise(a, b concept.ID) Result {
	start := time.Now()
	score, err := s.scorer.Pairwise(s.cfg.Measure, a, b)
	return s.result("pairwise", score, err, start, "a", a, "b", b)
}

// Groupwise scores set a against set b.
func (s *Similarity) Groupwise(a, b concept.Set) Result {
	start := time.Now()
	score, err := s.scorer.Groupwise(s.cfg.Aggregation, s.cfg.Measure, a, b)
	return s.result("groupwise", score, err, start, "set_a", a.Len(), "set_b", b.Len())
}

func (s *Similarity) result(kind string, score float64, err error, start time.Time, args ...any) Result {
	if err != nil {
		if !errors.IsSimilarityFailure(err) {
			err = errors.WithCause(errors.ErrSimilarity, err, "")
		}
		s.metrics.RecordSimilarity(kind, "error", time.Since(start))
		s.logger.Debug("Similarity computation failed", append(args, "kind", kind, "error", err)...)
		return Result{Err: err}
	}
	s.metrics.RecordSimilarity(kind, "ok", time.Since(start))
	return Result{Score: score}
}
