package query

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ontosim/errors"
	"github.com/c360/ontosim/gateway"
	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/natsclient"
	"github.com/c360/ontosim/pkg/worker"
	fixtures "github.com/c360/ontosim/testutil"
	"github.com/c360/ontosim/testutil/overlaytest"
)

type recordingSubscriber struct {
	subjects []string
	queues   []string
	failOn   string
}

func (r *recordingSubscriber) Subscribe(subject, queue string, _ natsclient.Handler) error {
	if subject == r.failOn {
		return fmt.Errorf("permissions violation for %s", subject)
	}
	r.subjects = append(r.subjects, subject)
	r.queues = append(r.queues, queue)
	return nil
}

func newProcessor(t *testing.T, cfg Config) (*Processor, *metric.MetricsRegistry) {
	t.Helper()
	registry := metric.NewMetricsRegistry()
	p, err := NewProcessor(overlaytest.NewSample(t, registry), cfg, registry.CoreMetrics(), nil)
	require.NoError(t, err)
	return p, registry
}

// roundTrip sends a request through Handle and the JSON envelope, the way a
// NATS requester would see it.
func roundTrip(t *testing.T, p *Processor, op string, req any, data any) QueryResponse {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	raw, err := json.Marshal(p.Handle(context.Background(), op, "", payload))
	require.NoError(t, err)

	var envelope struct {
		ID    string          `json:"id"`
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	if data != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return QueryResponse{ID: envelope.ID, Error: envelope.Error}
}

func TestStart_SubscribesAllOperations(t *testing.T) {
	p, _ := newProcessor(t, Config{SubjectPrefix: "mesh.q"})
	sub := &recordingSubscriber{}

	require.NoError(t, p.Start(context.Background(), sub))
	assert.Equal(t, []string{
		"mesh.q.concept", "mesh.q.label", "mesh.q.pairwise", "mesh.q.groupwise", "mesh.q.neighborhood",
	}, sub.subjects)
	assert.Equal(t, []string{"", "", "", "", ""}, sub.queues)
	assert.Equal(t, worker.DefaultWorkers, p.Stats().Workers)

	err := p.Start(context.Background(), sub)
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)

	p.Stop()
	assert.Equal(t, worker.PoolStats{}, p.Stats())
	require.NoError(t, p.Start(context.Background(), &recordingSubscriber{}))
	p.Stop()
}

func TestHandler_QueueFullIsRateLimited(t *testing.T) {
	p, registry := newProcessor(t, DefaultConfig())

	release := make(chan struct{})
	busy, err := worker.NewPool(1, 1, func(context.Context, request) error {
		<-release
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, busy.Start(context.Background()))
	defer func() {
		close(release)
		_ = busy.Stop(time.Second)
	}()
	require.NoError(t, busy.Submit(request{op: OpPairwise}))
	require.Eventually(t, func() bool {
		return busy.Submit(request{op: OpPairwise}) != nil
	}, time.Second, time.Millisecond)

	p.handler(busy, OpPairwise)(&nats.Msg{Subject: "ontology.query.pairwise"})

	counter := registry.CoreMetrics().Requests.WithLabelValues("nats", OpPairwise, "transient")
	assert.Equal(t, 1.0, testutil.ToFloat64(counter))
}

func TestStart_SubscribeFailure(t *testing.T) {
	p, _ := newProcessor(t, DefaultConfig())
	err := p.Start(context.Background(), &recordingSubscriber{failOn: "ontology.query.groupwise"})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestNewProcessor_RequiresService(t *testing.T) {
	_, err := NewProcessor(nil, DefaultConfig(), nil, nil)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestHandle_Concept(t *testing.T) {
	p, _ := newProcessor(t, DefaultConfig())

	var got gateway.ConceptResponse
	resp := roundTrip(t, p, OpConcept, gateway.ConceptQuery{Label: "Ethics"}, &got)
	assert.Empty(t, resp.Error)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, fixtures.ID(fixtures.Ethics).String(), got.Concept)

	resp = roundTrip(t, p, OpConcept, gateway.ConceptQuery{Label: "Astrology"}, nil)
	assert.Contains(t, resp.Error, "not found")
}

func TestHandle_Label(t *testing.T) {
	p, _ := newProcessor(t, DefaultConfig())

	var got gateway.LabelResponse
	resp := roundTrip(t, p, OpLabel, gateway.LabelQuery{Concept: fixtures.Virtues}, &got)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "Virtues", got.Label)
}

func TestHandle_Pairwise(t *testing.T) {
	p, registry := newProcessor(t, DefaultConfig())

	var got gateway.ScoreResponse
	resp := roundTrip(t, p, OpPairwise, gateway.PairwiseRequest{A: fixtures.Morals, B: fixtures.Ethics}, &got)
	assert.Empty(t, resp.Error)
	assert.InDelta(t, 0.716, got.Score, 0.001)

	var soft gateway.ScoreResponse
	resp = roundTrip(t, p, OpPairwise, gateway.PairwiseRequest{A: fixtures.Morals, B: "D000000", Strict: true}, &soft)
	assert.Empty(t, resp.Error, "similarity failures are reported inside data")
	assert.Zero(t, soft.Score)
	assert.Contains(t, soft.Error, "unknown concept")

	m := registry.CoreMetrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("nats", OpPairwise, "ok")))
}

func TestHandle_Groupwise(t *testing.T) {
	p, _ := newProcessor(t, DefaultConfig())

	var got gateway.ScoreResponse
	resp := roundTrip(t, p, OpGroupwise, gateway.GroupwiseRequest{
		SetA: []string{fixtures.Morals},
		SetB: []string{fixtures.Morals},
	}, &got)
	assert.Empty(t, resp.Error)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
}

func TestHandle_Neighborhood(t *testing.T) {
	p, _ := newProcessor(t, DefaultConfig())

	var got gateway.NeighborhoodResponse
	resp := roundTrip(t, p, OpNeighborhood, gateway.NeighborhoodRequest{Seed: fixtures.Morals, Threshold: 0.9}, &got)
	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{fixtures.ID(fixtures.Morals).String()}, got.Concepts)
}

func TestHandle_NeighborhoodRateLimited(t *testing.T) {
	p, registry := newProcessor(t, Config{NeighborhoodRate: 0.001, NeighborhoodBurst: 2})
	req := gateway.NeighborhoodRequest{Seed: fixtures.Morals, Threshold: 0.5}

	for i := 0; i < 2; i++ {
		resp := roundTrip(t, p, OpNeighborhood, req, nil)
		assert.Empty(t, resp.Error)
	}
	resp := roundTrip(t, p, OpNeighborhood, req, nil)
	assert.Contains(t, resp.Error, "rate limited")

	// other operations are not limited
	resp = roundTrip(t, p, OpConcept, gateway.ConceptQuery{Label: "Morals"}, nil)
	assert.Empty(t, resp.Error)

	m := registry.CoreMetrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("nats", OpNeighborhood, "transient")))
}

func TestHandle_NeighborhoodCancelled(t *testing.T) {
	p, _ := newProcessor(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload, _ := json.Marshal(gateway.NeighborhoodRequest{Seed: fixtures.Morals, Threshold: 0.5})
	resp := p.Handle(ctx, OpNeighborhood, "q-1", payload)
	assert.Equal(t, "q-1", resp.ID)
	assert.Nil(t, resp.Data)
	assert.Contains(t, resp.Error, "context canceled")
}

func TestHandle_BadRequests(t *testing.T) {
	p, registry := newProcessor(t, DefaultConfig())

	resp := p.Handle(context.Background(), OpPairwise, "", []byte(`{"a":`))
	assert.Contains(t, resp.Error, "parsing failed")

	resp = p.Handle(context.Background(), OpPairwise, "", []byte(`{"a": "D009014"}`))
	assert.Contains(t, resp.Error, "a and b are required")

	resp = p.Handle(context.Background(), "shortest_path", "", []byte(`{}`))
	assert.NotEmpty(t, resp.Error)

	m := registry.CoreMetrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("nats", OpPairwise, "invalid")))
}
