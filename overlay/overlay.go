// Package overlay is the concept-similarity overlay: it repairs a loaded
// subsumption graph into a rooted DAG, indexes preferred labels, and answers
// similarity and neighborhood queries over the result.
//
// Construction runs once: load, sanitize, freeze, build the similarity
// scorer, index labels. After that every component is read-only and an
// Overlay may be shared by concurrent callers.
package overlay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/similarity"
)

// Config holds the construction parameters of an Overlay.
type Config struct {
	// OntologyPath is the ontology source file. Its directory must hold any
	// schema the loader needs.
	OntologyPath string
	// Prefix is the namespace concepts are minted under.
	Prefix string

	CycleEdges []EdgePair
	RequireDAG bool

	Similarity similarity.Config
	// CacheSize bounds the pairwise memo of the default scorer; 0 disables it.
	CacheSize int

	Collision CollisionPolicy
}

// DefaultConfig returns the MeSH 2014 setup: default namespace, the two known
// cycle edges, strict DAG validation, Lin with best-match average.
func DefaultConfig() Config {
	return Config{
		Prefix:     concept.DefaultNamespace,
		CycleEdges: DefaultMeSHCycleEdges(concept.DefaultNamespace),
		RequireDAG: true,
		Similarity: similarity.DefaultConfig(),
		CacheSize:  similarity.DefaultMemoSize,
		Collision:  CollisionFirst,
	}
}

// Dependencies are the collaborators of an Overlay. Zero values select the
// shipped implementations where one exists.
type Dependencies struct {
	// Loader is required by New.
	Loader Loader
	// Validator defaults to graph.IsRootedDAG.
	Validator DAGValidator
	// NewScorer defaults to a similarity.Engine.
	NewScorer ScorerFactory
	// Registry, when set, receives overlay and memo metrics.
	Registry *metric.MetricsRegistry
	Logger   *slog.Logger
}

// Stats summarizes a constructed overlay.
type Stats struct {
	Concepts        int                   `json:"concepts"`
	Edges           int                   `json:"edges"`
	Labels          int                   `json:"labels"`
	LabelCollisions int                   `json:"label_collisions"`
	EdgesRemoved    int                   `json:"edges_removed"`
	EdgesMissing    int                   `json:"edges_missing"`
	IsDAG           bool                  `json:"is_dag"`
	Measure         string                `json:"measure"`
	Aggregation     string                `json:"aggregation"`
	Memo            *similarity.MemoStats `json:"memo,omitempty"`
	BuildTime       time.Duration         `json:"build_time"`
}

// Overlay is the constructed, read-only query surface.
type Overlay struct {
	cfg       Config
	graph     *graph.Graph
	report    SanitizeReport
	scorer    Scorer
	sim       *Similarity
	labels    *LabelIndex
	expander  *Expander
	metrics   *metric.Metrics
	logger    *slog.Logger
	buildTime time.Duration
}

// New loads cfg.OntologyPath with deps.Loader and builds the overlay.
func New(ctx context.Context, cfg Config, deps Dependencies) (*Overlay, error) {
	if deps.Loader == nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: ontology loader", errors.ErrMissingConfig),
			"Overlay", "New", "check dependencies")
	}
	if cfg.OntologyPath == "" {
		return nil, errors.WrapFatal(fmt.Errorf("%w: ontology path", errors.ErrMissingConfig),
			"Overlay", "New", "check config")
	}

	logger := componentLogger(deps.Logger)
	start := time.Now()

	g, labels, err := deps.Loader.Load(ctx, cfg.OntologyPath, concept.NormalizeNamespace(cfg.Prefix))
	if err != nil {
		logger.Error("Ontology load failed", "path", cfg.OntologyPath, "error", err)
		if !errors.Is(err, errors.ErrLoad) {
			err = fmt.Errorf("%w: %w", errors.ErrLoad, err)
		}
		return nil, errors.WrapFatal(err, "Overlay", "New", "load ontology")
	}

	return build(g, labels, cfg, deps, start)
}

// NewFromGraph builds the overlay from an already loaded graph. g is
// sanitized in place and frozen.
func NewFromGraph(g *graph.Graph, labels LabelSource, cfg Config, deps Dependencies) (*Overlay, error) {
	if g == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: nil graph", errors.ErrInvalidData),
			"Overlay", "NewFromGraph", "check graph")
	}
	return build(g, labels, cfg, deps, time.Now())
}

func build(g *graph.Graph, labels LabelSource, cfg Config, deps Dependencies, start time.Time) (*Overlay, error) {
	logger := componentLogger(deps.Logger)
	metrics := deps.Registry.CoreMetrics()

	if err := cfg.Collision.Validate(); err != nil {
		return nil, err
	}

	sanitizer := NewSanitizer(cfg.CycleEdges,
		WithValidator(deps.Validator),
		WithRequireDAG(cfg.RequireDAG),
		WithSanitizerLogger(deps.Logger))

	report, err := sanitizer.Sanitize(g)
	metrics.RecordSanitize(len(report.Removed), report.IsDAG)
	if err != nil {
		logger.Error("Graph sanitization failed", "error", err)
		return nil, err
	}
	g.Freeze()

	newScorer := deps.NewScorer
	if newScorer == nil {
		newScorer = defaultScorer(cfg.CacheSize, deps.Registry, deps.Logger)
	}
	scorer, err := newScorer(g)
	if err != nil {
		return nil, errors.Wrap(err, "Overlay", "New", "build similarity engine")
	}

	sim, err := NewSimilarity(scorer, cfg.Similarity, metrics, deps.Logger)
	if err != nil {
		return nil, err
	}

	index := BuildLabelIndex(g.Concepts(), labels, cfg.Collision)

	o := &Overlay{
		cfg:       cfg,
		graph:     g,
		report:    report,
		scorer:    scorer,
		sim:       sim,
		labels:    index,
		expander:  NewExpander(g, sim),
		metrics:   metrics,
		logger:    logger,
		buildTime: time.Since(start),
	}

	metrics.RecordOntology(g.Len(), g.EdgeCount())
	metrics.RecordLabelIndex(index.Len(), index.Collisions())
	metrics.RecordConstruct(o.buildTime)

	logger.Info("Overlay ready",
		"concepts", g.Len(),
		"edges", g.EdgeCount(),
		"labels", index.Len(),
		"label_collisions", index.Collisions(),
		"measure", cfg.Similarity.Measure,
		"aggregation", cfg.Similarity.Aggregation,
		"duration", o.buildTime)
	return o, nil
}

func defaultScorer(cacheSize int, registry *metric.MetricsRegistry, logger *slog.Logger) ScorerFactory {
	return func(g *graph.Graph) (Scorer, error) {
		opts := []similarity.Option{similarity.WithMemoSize(cacheSize)}
		if registry != nil {
			opts = append(opts, similarity.WithRegistry(registry))
		}
		if logger != nil {
			opts = append(opts, similarity.WithLogger(logger))
		}
		engine, err := similarity.NewEngine(g, opts...)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
}

func componentLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", "overlay")
}

// ConceptForLabel returns the concept indexed under label. The label is
// normalized before the lookup.
func (o *Overlay) ConceptForLabel(label string) (concept.ID, bool) {
	return o.labels.LookupByLabel(label)
}

// LabelForConcept returns the preferred label of id.
func (o *Overlay) LabelForConcept(id concept.ID) (string, bool) {
	return o.labels.LookupLabel(id)
}

// PairwiseSimilarity scores a against b, returning 0 when the score cannot be
// computed.
func (o *Overlay) PairwiseSimilarity(a, b concept.ID) float64 {
	return o.sim.Pairwise(a, b).OrZero()
}

// GroupwiseSimilarity scores set a against set b, returning 0 when the score
// cannot be computed.
func (o *Overlay) GroupwiseSimilarity(a, b concept.Set) float64 {
	return o.sim.Groupwise(a, b).OrZero()
}

// PairwiseResult is PairwiseSimilarity without the fallback.
func (o *Overlay) PairwiseResult(a, b concept.ID) Result {
	return o.sim.Pairwise(a, b)
}

// GroupwiseResult is GroupwiseSimilarity without the fallback.
func (o *Overlay) GroupwiseResult(a, b concept.Set) Result {
	return o.sim.Groupwise(a, b)
}

// Neighborhood expands seed at threshold. See Expander.
func (o *Overlay) Neighborhood(ctx context.Context, seed concept.ID, threshold float64) (concept.Set, error) {
	result, stats, err := o.expander.ExpandWithStats(ctx, seed, threshold)
	if err != nil {
		o.logger.Debug("Neighborhood expansion failed", "seed", seed, "threshold", threshold, "error", err)
		return nil, err
	}
	o.metrics.RecordNeighborhood(result.Len(), stats.Evaluations)
	o.logger.Debug("Neighborhood expanded",
		"seed", seed,
		"threshold", threshold,
		"size", result.Len(),
		"evaluations", stats.Evaluations,
		"pops", stats.Pops)
	return result, nil
}

// Resolve turns a local name or IRI into a concept of this overlay's
// namespace.
func (o *Overlay) Resolve(ref string) concept.ID {
	return concept.Resolve(o.cfg.Prefix, ref)
}

// Stats summarizes the overlay.
func (o *Overlay) Stats() Stats {
	s := Stats{
		Concepts:        o.graph.Len(),
		Edges:           o.graph.EdgeCount(),
		Labels:          o.labels.Len(),
		LabelCollisions: o.labels.Collisions(),
		EdgesRemoved:    len(o.report.Removed),
		EdgesMissing:    len(o.report.Missing),
		IsDAG:           o.report.IsDAG,
		Measure:         string(o.cfg.Similarity.Measure),
		Aggregation:     string(o.cfg.Similarity.Aggregation),
		BuildTime:       o.buildTime,
	}
	if m, ok := o.scorer.(interface{ MemoStats() similarity.MemoStats }); ok {
		memo := m.MemoStats()
		s.Memo = &memo
	}
	return s
}

// Graph returns the sanitized, frozen graph.
func (o *Overlay) Graph() *graph.Graph {
	return o.graph
}

// Report returns what the sanitizer did.
func (o *Overlay) Report() SanitizeReport {
	return o.report
}

// Config returns the construction parameters.
func (o *Overlay) Config() Config {
	return o.cfg
}
