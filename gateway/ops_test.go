package gateway

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/testutil"
	"github.com/c360/ontosim/testutil/overlaytest"
)

func TestConcept(t *testing.T) {
	svc := overlaytest.NewSample(t, nil)

	resp, err := Concept(svc, ConceptQuery{Label: "  morals "})
	require.NoError(t, err)
	assert.Equal(t, testutil.ID(testutil.Morals).String(), resp.Concept)
	assert.Equal(t, "Morals", resp.Label)

	_, err = Concept(svc, ConceptQuery{Label: "Astrology"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Concept(svc, ConceptQuery{})
	assert.True(t, errors.IsInvalid(err))
}

func TestLabel(t *testing.T) {
	svc := overlaytest.NewSample(t, nil)

	resp, err := Label(svc, LabelQuery{Concept: testutil.Ethics})
	require.NoError(t, err)
	assert.Equal(t, "Ethics", resp.Label)
	assert.Equal(t, testutil.ID(testutil.Ethics).String(), resp.Concept)

	full, err := Label(svc, LabelQuery{Concept: testutil.ID(testutil.Ethics).String()})
	require.NoError(t, err)
	assert.Equal(t, resp, full)

	_, err = Label(svc, LabelQuery{Concept: "D000000"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPairwise(t *testing.T) {
	svc := overlaytest.NewSample(t, nil)

	resp, err := Pairwise(svc, PairwiseRequest{A: testutil.Morals, B: testutil.SocialBehavior})
	require.NoError(t, err)
	assert.InDelta(t, 0.884, resp.Score, 0.001)
	assert.Empty(t, resp.Error)

	soft, err := Pairwise(svc, PairwiseRequest{A: testutil.Morals, B: "D000000"})
	require.NoError(t, err)
	assert.Equal(t, ScoreResponse{Score: 0}, soft)

	strict, err := Pairwise(svc, PairwiseRequest{A: testutil.Morals, B: "D000000", Strict: true})
	require.NoError(t, err)
	assert.Zero(t, strict.Score)
	assert.Contains(t, strict.Error, "unknown concept")

	_, err = Pairwise(svc, PairwiseRequest{A: testutil.Morals})
	assert.True(t, errors.IsInvalid(err))
}

func TestGroupwise(t *testing.T) {
	svc := overlaytest.NewSample(t, nil)

	same, err := Groupwise(svc, GroupwiseRequest{
		SetA: []string{testutil.Morals, testutil.Ethics},
		SetB: []string{testutil.Ethics, testutil.Morals},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same.Score, 1e-9)

	empty, err := Groupwise(svc, GroupwiseRequest{SetA: []string{testutil.Morals}, Strict: true})
	require.NoError(t, err)
	assert.Zero(t, empty.Score)
	assert.Contains(t, empty.Error, "empty concept set")

	_, err = Groupwise(svc, GroupwiseRequest{SetA: []string{" "}})
	assert.True(t, errors.IsInvalid(err))
}

func TestNeighborhood(t *testing.T) {
	svc := overlaytest.NewSample(t, nil)
	ctx := context.Background()

	resp, err := Neighborhood(ctx, svc, NeighborhoodRequest{Seed: testutil.Morals, Threshold: 0.8})
	require.NoError(t, err)
	assert.Equal(t, []string{
		testutil.ID(testutil.Morals).String(),
		testutil.ID(testutil.SocialBehavior).String(),
	}, resp.Concepts)
	assert.Equal(t, testutil.ID(testutil.Morals).String(), resp.Seed)

	tight, err := Neighborhood(ctx, svc, NeighborhoodRequest{Seed: testutil.Morals, Threshold: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{testutil.ID(testutil.Morals).String()}, tight.Concepts)

	_, err = Neighborhood(ctx, svc, NeighborhoodRequest{Seed: testutil.Morals, Threshold: math.NaN()})
	assert.True(t, errors.IsInvalid(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Neighborhood(cancelled, svc, NeighborhoodRequest{Seed: testutil.Morals, Threshold: 0.5})
	assert.ErrorIs(t, err, context.Canceled)
}
