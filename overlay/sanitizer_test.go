package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
	"github.com/c360/ontosim/testutil"
)

// cyclicGraph reproduces the two MeSH 2014 cycles below a single root.
func cyclicGraph(t *testing.T) *graph.Graph {
	return testutil.BuildGraph(t,
		[2]string{testutil.Behavior, testutil.Root},
		[2]string{testutil.Humanities, testutil.Root},
		[2]string{testutil.Morals, testutil.Behavior},
		[2]string{testutil.Morals, testutil.Ethics},
		[2]string{testutil.Ethics, testutil.Morals},
		[2]string{testutil.Ethics, testutil.Humanities},
		[2]string{testutil.CarboxylicAcids, testutil.Root},
		[2]string{testutil.HydroxyAcid, testutil.CarboxylicAcids},
		[2]string{testutil.HydroxyAcid, testutil.Hydroxybutyrate},
		[2]string{testutil.Hydroxybutyrate, testutil.HydroxyAcid},
		[2]string{testutil.Hydroxybutyrate, testutil.CarboxylicAcids},
	)
}

func TestDefaultMeSHCycleEdges(t *testing.T) {
	pairs := DefaultMeSHCycleEdges("http://usi/")
	require.Len(t, pairs, 2)
	assert.Equal(t, EdgePair{Child: testutil.ID(testutil.Morals), Parent: testutil.ID(testutil.Ethics)}, pairs[0])
	assert.Equal(t, EdgePair{Child: testutil.ID(testutil.HydroxyAcid), Parent: testutil.ID(testutil.Hydroxybutyrate)}, pairs[1])
	assert.Equal(t, "http://usi/D009014 -> http://usi/D004989", pairs[0].String())

	other := DefaultMeSHCycleEdges("http://example.org/mesh")
	assert.Equal(t, concept.ID("http://example.org/mesh/D009014"), other[0].Child)
}

func TestSanitizer_BreaksMeSHCycles(t *testing.T) {
	g := cyclicGraph(t)
	require.False(t, graph.IsRootedDAG(g))

	report, err := NewSanitizer(DefaultMeSHCycleEdges(concept.DefaultNamespace)).Sanitize(g)
	require.NoError(t, err)

	assert.True(t, report.IsDAG)
	assert.True(t, graph.IsRootedDAG(g))
	assert.Len(t, report.Removed, 2)
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Cycle)

	assert.False(t, g.HasEdge(graph.Edge{Source: testutil.ID(testutil.Morals), Target: testutil.ID(testutil.Ethics), Relation: graph.SubClassOf}))
	assert.True(t, g.HasEdge(graph.Edge{Source: testutil.ID(testutil.Ethics), Target: testutil.ID(testutil.Morals), Relation: graph.SubClassOf}),
		"only the configured direction is removed")
	assert.Equal(t, 9, g.EdgeCount())
}

func TestSanitizer_MissingPairIsNotAnError(t *testing.T) {
	g := testutil.BuildGraph(t, [2]string{"A", "R"})
	pairs := []EdgePair{{Child: testutil.ID("A"), Parent: testutil.ID("X")}}

	report, err := NewSanitizer(pairs).Sanitize(g)
	require.NoError(t, err)
	assert.Equal(t, pairs, report.Missing)
	assert.Empty(t, report.Removed)
	assert.True(t, report.IsDAG)
}

func TestSanitizer_StrictFailure(t *testing.T) {
	g := cyclicGraph(t)

	report, err := NewSanitizer(nil).Sanitize(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrGraphIntegrity)
	assert.True(t, errors.IsFatal(err))
	assert.False(t, report.IsDAG)
	assert.NotEmpty(t, report.Cycle)
	assert.Equal(t, report.Cycle[0], report.Cycle[len(report.Cycle)-1], "cycle is closed")
}

func TestSanitizer_Lenient(t *testing.T) {
	g := cyclicGraph(t)

	report, err := NewSanitizer(nil, WithRequireDAG(false)).Sanitize(g)
	require.NoError(t, err)
	assert.False(t, report.IsDAG)
	assert.Equal(t, []concept.ID{testutil.ID(testutil.Root)}, report.Roots)
}

func TestSanitizer_CustomValidator(t *testing.T) {
	g := testutil.BuildGraph(t, [2]string{"A", "R"})
	calls := 0
	reject := func(*graph.Graph) bool {
		calls++
		return false
	}

	_, err := NewSanitizer(nil, WithValidator(reject)).Sanitize(g)
	assert.ErrorIs(t, err, errors.ErrGraphIntegrity)
	assert.Equal(t, 1, calls)
}

func TestSanitizer_FrozenGraph(t *testing.T) {
	g := cyclicGraph(t)
	g.Freeze()

	_, err := NewSanitizer(DefaultMeSHCycleEdges(concept.DefaultNamespace)).Sanitize(g)
	assert.ErrorIs(t, err, errors.ErrGraphFrozen)
}

func TestSanitizer_PairsAreCopied(t *testing.T) {
	pairs := DefaultMeSHCycleEdges(concept.DefaultNamespace)
	s := NewSanitizer(pairs)
	pairs[0].Child = "changed"
	assert.Equal(t, testutil.ID(testutil.Morals), s.Pairs()[0].Child)
}
