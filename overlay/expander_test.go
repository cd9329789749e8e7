package overlay

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ontosim/concept"
	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/graph"
	"github.com/c360/ontosim/similarity"
	"github.com/c360/ontosim/testutil"
)

// stubExpander sanitizes the cyclic sample and scores it with stub.
func stubExpander(t *testing.T, stub *testutil.StubScorer) *Expander {
	t.Helper()
	g := cyclicGraph(t)
	_, err := NewSanitizer(DefaultMeSHCycleEdges(concept.DefaultNamespace)).Sanitize(g)
	require.NoError(t, err)
	g.Freeze()

	sim, err := NewSimilarity(stub, similarity.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	return NewExpander(g, sim)
}

func assertSet(t *testing.T, want []concept.ID, got concept.Set) {
	t.Helper()
	if diff := cmp.Diff(want, got.Sorted()); diff != "" {
		t.Errorf("neighborhood mismatch (-want +got):\n%s", diff)
	}
}

func TestExpander_MoralsScenario(t *testing.T) {
	morals := testutil.ID(testutil.Morals)
	stub := testutil.NewStubScorer().
		Set(morals, testutil.ID(testutil.Ethics), 0.85).
		Set(morals, testutil.ID(testutil.Behavior), 0.95).
		Set(morals, testutil.ID(testutil.Root), 0.2)

	result, err := stubExpander(t, stub).Expand(context.Background(), morals, 0.9)
	require.NoError(t, err)
	assertSet(t, testutil.IDs(testutil.Behavior, testutil.Morals), result)
}

func TestExpander_StrictThreshold(t *testing.T) {
	morals := testutil.ID(testutil.Morals)
	stub := testutil.NewStubScorer().Set(morals, testutil.ID(testutil.Behavior), 0.9)

	result, err := stubExpander(t, stub).Expand(context.Background(), morals, 0.9)
	require.NoError(t, err)
	assertSet(t, testutil.IDs(testutil.Morals), result)
}

func TestExpander_WalksBothDirections(t *testing.T) {
	stub := testutil.NewStubScorer()
	stub.Default = 0.99

	result, stats, err := stubExpander(t, stub).ExpandWithStats(context.Background(), testutil.ID(testutil.Morals), 0.5)
	require.NoError(t, err)

	// everything is connected through the root
	assert.Equal(t, 8, result.Len())
	assert.Equal(t, 8, stats.Pops)
	assert.Equal(t, 7, stats.Evaluations)
	assert.LessOrEqual(t, stub.MaxCalls(), 1, "each concept is scored once")
}

func TestExpander_ThresholdOneIsSeedOnly(t *testing.T) {
	stub := testutil.NewStubScorer()
	stub.Default = 1

	result, err := stubExpander(t, stub).Expand(context.Background(), testutil.ID(testutil.Ethics), 1.0)
	require.NoError(t, err)
	assertSet(t, testutil.IDs(testutil.Ethics), result)
}

func TestExpander_UnknownSeed(t *testing.T) {
	stub := testutil.NewStubScorer()
	stub.Fail.Add(testutil.ID("D000000"))

	result, stats, err := stubExpander(t, stub).ExpandWithStats(context.Background(), testutil.ID("D000000"), 0)
	require.NoError(t, err)
	assertSet(t, testutil.IDs("D000000"), result)
	assert.Equal(t, 0, stats.Evaluations)
}

func TestExpander_PropagatesFailure(t *testing.T) {
	stub := testutil.NewStubScorer()
	stub.Default = 0.99
	stub.Fail.Add(testutil.ID(testutil.Ethics))

	result, err := stubExpander(t, stub).Expand(context.Background(), testutil.ID(testutil.Morals), 0.5)
	require.Error(t, err)
	assert.Nil(t, result, "partial results are discarded")
	assert.ErrorIs(t, err, errors.ErrSimilarity)
	assert.ErrorIs(t, err, errors.ErrUnknownConcept)
}

func TestExpander_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := stubExpander(t, testutil.NewStubScorer()).Expand(ctx, testutil.ID(testutil.Morals), 0.5)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errors.IsTransient(err))
}

func TestExpander_EngineProperties(t *testing.T) {
	g := cyclicGraph(t)
	_, err := NewSanitizer(DefaultMeSHCycleEdges(concept.DefaultNamespace)).Sanitize(g)
	require.NoError(t, err)
	g.Freeze()

	engine, err := similarity.NewEngine(g)
	require.NoError(t, err)
	sim, err := NewSimilarity(engine, similarity.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	x := NewExpander(g, sim)

	thresholds := []float64{0, 0.1, 0.25, 0.4, 0.5, 0.6, 0.75, 0.9, 1}
	for _, seed := range g.Concepts() {
		reachable := reachableFrom(g, seed)

		var previous concept.Set
		for _, th := range thresholds {
			result, err := x.Expand(context.Background(), seed, th)
			require.NoError(t, err)

			assert.True(t, result.Has(seed), "seed %s at %.2f", seed, th)
			assert.True(t, reachable.IsSupersetOf(result), "only reachable concepts for %s", seed)
			if previous != nil {
				assert.True(t, previous.IsSupersetOf(result),
					"neighborhood of %s shrinks as the threshold rises to %.2f", seed, th)
			}
			previous = result
		}
		assert.Equal(t, 1, previous.Len(), "threshold 1 keeps only %s", seed)
	}
}

func reachableFrom(g *graph.Graph, seed concept.ID) concept.Set {
	seen := concept.NewSet(seed)
	queue := []concept.ID{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbors(cur, graph.SubClassOf, graph.Both) {
			if seen.Add(n) {
				queue = append(queue, n)
			}
		}
	}
	return seen
}
