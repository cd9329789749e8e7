package overlay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
	"github.com/c360/ontosim/loader/mesh"
	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/similarity"
	fixtures "github.com/c360/ontosim/testutil"
)

func sampleConfig() Config {
	cfg := DefaultConfig()
	cfg.OntologyPath = fixtures.SampleMeSHPath()
	return cfg
}

func meshDeps() Dependencies {
	return Dependencies{Loader: MeSHLoader(mesh.NewLoader())}
}

type OverlaySuite struct {
	suite.Suite
	registry *metric.MetricsRegistry
	overlay  *Overlay
}

func TestOverlaySuite(t *testing.T) {
	suite.Run(t, new(OverlaySuite))
}

func (s *OverlaySuite) SetupTest() {
	s.registry = metric.NewMetricsRegistry()
	deps := meshDeps()
	deps.Registry = s.registry

	o, err := New(context.Background(), sampleConfig(), deps)
	s.Require().NoError(err)
	s.overlay = o
}

func (s *OverlaySuite) TestConstruction() {
	report := s.overlay.Report()
	s.True(report.IsDAG)
	s.Len(report.Removed, 2)
	s.Empty(report.Missing)
	s.True(s.overlay.Graph().Frozen())
	s.True(graph.IsRootedDAG(s.overlay.Graph()))

	stats := s.overlay.Stats()
	s.Equal(12, stats.Concepts)
	s.Equal(13, stats.Edges)
	s.Equal(11, stats.Labels)
	s.Equal(0, stats.LabelCollisions)
	s.Equal("lin", stats.Measure)
	s.Equal("bma", stats.Aggregation)
	s.Require().NotNil(stats.Memo)

	m := s.registry.CoreMetrics()
	s.Equal(12.0, testutil.ToFloat64(m.ConceptsLoaded))
	s.Equal(2.0, testutil.ToFloat64(m.EdgesRemoved))
	s.Equal(1.0, testutil.ToFloat64(m.DAGValid))
	s.Equal(11.0, testutil.ToFloat64(m.LabelIndexSize))
}

func (s *OverlaySuite) TestLabels() {
	id, ok := s.overlay.ConceptForLabel("Morals")
	s.True(ok)
	s.Equal(fixtures.ID(fixtures.Morals), id)

	id, ok = s.overlay.ConceptForLabel("  3-hydroxybutyric acid ")
	s.True(ok)
	s.Equal(fixtures.ID(fixtures.HydroxyAcid), id)

	label, ok := s.overlay.LabelForConcept(fixtures.ID(fixtures.Female))
	s.True(ok)
	s.Equal("Female", label)

	_, ok = s.overlay.LabelForConcept(fixtures.ID(fixtures.Root))
	s.False(ok, "the synthetic root has no label")

	_, ok = s.overlay.ConceptForLabel("no such label")
	s.False(ok)
}

func (s *OverlaySuite) TestLabelRoundTrip() {
	for _, c := range s.overlay.Graph().Concepts() {
		label, ok := s.overlay.LabelForConcept(c)
		if !ok {
			continue
		}
		got, ok := s.overlay.ConceptForLabel(label)
		s.True(ok, "label %q", label)
		s.Equal(c, got)
	}
}

func (s *OverlaySuite) TestPairwise() {
	morals := fixtures.ID(fixtures.Morals)

	s.Equal(1.0, s.overlay.PairwiseSimilarity(morals, morals))

	ethics := s.overlay.PairwiseSimilarity(morals, fixtures.ID(fixtures.Ethics))
	s.Greater(ethics, 0.0)
	s.Less(ethics, 0.9)

	r := s.overlay.PairwiseResult(morals, fixtures.ID(fixtures.Ethics))
	s.True(r.OK())
	s.Equal(ethics, r.Score)
}

func (s *OverlaySuite) TestFailSoft() {
	unknown := fixtures.ID("D000000")
	morals := fixtures.ID(fixtures.Morals)

	s.Equal(0.0, s.overlay.PairwiseSimilarity(unknown, morals))
	s.Equal(0.0, s.overlay.GroupwiseSimilarity(concept.NewSet(unknown), concept.NewSet(morals)))
	s.Equal(0.0, s.overlay.GroupwiseSimilarity(concept.NewSet(), concept.NewSet(morals)))

	r := s.overlay.PairwiseResult(unknown, morals)
	s.False(r.OK())
	s.ErrorIs(r.Err, errors.ErrSimilarity)
	s.ErrorIs(r.Err, errors.ErrUnknownConcept)

	g := s.overlay.GroupwiseResult(concept.NewSet(), concept.NewSet(morals))
	s.ErrorIs(g.Err, errors.ErrEmptyConceptSet)

	failed := s.registry.CoreMetrics().SimilarityComputations
	s.Equal(2.0, testutil.ToFloat64(failed.WithLabelValues("pairwise", "error")))
	s.Equal(3.0, testutil.ToFloat64(failed.WithLabelValues("groupwise", "error")))
}

func (s *OverlaySuite) TestGroupwise() {
	a := concept.NewSet(fixtures.ID(fixtures.Morals), fixtures.ID(fixtures.Ethics))
	s.InDelta(1.0, s.overlay.GroupwiseSimilarity(a, a), 1e-9)

	b := concept.NewSet(fixtures.ID(fixtures.Hydroxybutyrate))
	s.Less(s.overlay.GroupwiseSimilarity(a, b), s.overlay.GroupwiseSimilarity(a, a))
}

func (s *OverlaySuite) TestNeighborhood() {
	morals := fixtures.ID(fixtures.Morals)

	result, err := s.overlay.Neighborhood(context.Background(), morals, 0.9)
	s.Require().NoError(err)
	s.Equal([]concept.ID{morals}, result.Sorted())

	// Lin(morals, social behavior) is about 0.88, ethics about 0.72
	result, err = s.overlay.Neighborhood(context.Background(), morals, 0.8)
	s.Require().NoError(err)
	s.Equal(fixtures.IDs(fixtures.Morals, fixtures.SocialBehavior), result.Sorted())

	// three neighbors of morals at 0.9, plus behavior at 0.8
	s.Equal(7.0, testutil.ToFloat64(s.registry.CoreMetrics().NeighborhoodEvaluated))
}

func (s *OverlaySuite) TestResolve() {
	s.Equal(fixtures.ID(fixtures.Morals), s.overlay.Resolve("D009014"))
	s.Equal(concept.ID("http://other/X"), s.overlay.Resolve("http://other/X"))
}

func TestNew_EmptyOntology(t *testing.T) {
	cfg := sampleConfig()
	cfg.OntologyPath = filepath.Join(filepath.Dir(fixtures.SampleMeSHPath()), "desc_empty.xml")

	o, err := New(context.Background(), cfg, meshDeps())
	require.NoError(t, err)

	assert.Equal(t, 0, o.Stats().Concepts)
	assert.Equal(t, 0, o.Stats().Labels)
	assert.Len(t, o.Report().Missing, 2)

	_, ok := o.ConceptForLabel("morals")
	assert.False(t, ok)
	_, ok = o.LabelForConcept(fixtures.ID(fixtures.Morals))
	assert.False(t, ok)
	assert.Equal(t, 0.0, o.PairwiseSimilarity(fixtures.ID(fixtures.Morals), fixtures.ID(fixtures.Ethics)))
}

func TestNew_LoadFailure(t *testing.T) {
	cfg := sampleConfig()
	cfg.OntologyPath = filepath.Join(t.TempDir(), "missing.xml")

	_, err := New(context.Background(), cfg, meshDeps())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLoad)
	assert.True(t, errors.IsFatal(err))
}

func TestNew_LoaderErrorIsWrapped(t *testing.T) {
	failing := LoaderFunc(func(context.Context, string, string) (*graph.Graph, LabelSource, error) {
		return nil, nil, errors.New("disk on fire")
	})

	_, err := New(context.Background(), sampleConfig(), Dependencies{Loader: failing})
	assert.ErrorIs(t, err, errors.ErrLoad)
}

func TestNew_MissingDependencies(t *testing.T) {
	_, err := New(context.Background(), sampleConfig(), Dependencies{})
	assert.ErrorIs(t, err, errors.ErrMissingConfig)

	cfg := sampleConfig()
	cfg.OntologyPath = ""
	_, err = New(context.Background(), cfg, meshDeps())
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestNew_IntegrityPolicy(t *testing.T) {
	cfg := sampleConfig()
	cfg.CycleEdges = nil

	_, err := New(context.Background(), cfg, meshDeps())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrGraphIntegrity)

	cfg.RequireDAG = false
	o, err := New(context.Background(), cfg, meshDeps())
	require.NoError(t, err)
	assert.False(t, o.Stats().IsDAG)
	assert.NotEmpty(t, o.Report().Cycle)
}

func TestNew_InvalidSimilarityConfig(t *testing.T) {
	cfg := sampleConfig()
	cfg.Similarity.Measure = "cosine"

	_, err := New(context.Background(), cfg, meshDeps())
	assert.ErrorIs(t, err, errors.ErrUnknownMeasure)
}

func TestNewFromGraph_StubScorer(t *testing.T) {
	morals := fixtures.ID(fixtures.Morals)
	stub := fixtures.NewStubScorer().
		Set(morals, fixtures.ID(fixtures.Ethics), 0.5).
		Set(morals, fixtures.ID(fixtures.Virtues), 0.95)

	g, idx, err := mesh.NewLoader().LoadAll(context.Background(), fixtures.SampleMeSHPath(), concept.DefaultNamespace)
	require.NoError(t, err)

	o, err := NewFromGraph(g, idx, DefaultConfig(), Dependencies{
		NewScorer: func(*graph.Graph) (Scorer, error) { return stub, nil },
	})
	require.NoError(t, err)

	result, err := o.Neighborhood(context.Background(), morals, 0.9)
	require.NoError(t, err)
	assert.Equal(t, fixtures.IDs(fixtures.Morals, fixtures.Virtues), result.Sorted())
	assert.Nil(t, o.Stats().Memo, "stub scorer has no memo")
}

func TestNewFromGraph_NilGraph(t *testing.T) {
	_, err := NewFromGraph(nil, nil, DefaultConfig(), Dependencies{})
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestNewFromGraph_ScorerFactoryFailure(t *testing.T) {
	g := fixtures.BuildGraph(t, [2]string{"A", "R"})
	_, err := NewFromGraph(g, nil, DefaultConfig(), Dependencies{
		NewScorer: func(*graph.Graph) (Scorer, error) { return nil, errors.New("boom") },
	})
	assert.Error(t, err)
}

func TestNewFromGraph_MeasureIsFixed(t *testing.T) {
	g := fixtures.BuildGraph(t, [2]string{"A", "R"}, [2]string{"B", "R"}, [2]string{"A1", "A"})
	cfg := DefaultConfig()
	cfg.Similarity = similarity.Config{Measure: similarity.MeasureWuPalmer, Aggregation: similarity.AggregationMax}

	o, err := NewFromGraph(g, nil, cfg, Dependencies{})
	require.NoError(t, err)
	// depth(R)=1, depth(A)=2, depth(A1)=3
	assert.InDelta(t, 0.8, o.PairwiseSimilarity(fixtures.ID("A1"), fixtures.ID("A")), 1e-9)
}
