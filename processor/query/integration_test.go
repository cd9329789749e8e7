package query

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gonats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ontosim/gateway"
	"github.com/c360/ontosim/natsclient"
	fixtures "github.com/c360/ontosim/testutil"
)

func TestIntegration_RequestReply(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := natsclient.NewTestClient(t)
	p, _ := newProcessor(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Start(ctx, tc.Client))
	defer p.Stop()

	requester := tc.NewRequester(t)

	request := func(op string, body any, header string) (QueryResponse, json.RawMessage) {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		msg := gonats.NewMsg(p.Subject(op))
		msg.Data = payload
		if header != "" {
			msg.Header.Set(RequestIDHeader, header)
		}
		reply, err := requester.RequestMsg(msg, 2*time.Second)
		require.NoError(t, err)

		var envelope struct {
			ID    string          `json:"id"`
			Data  json.RawMessage `json:"data"`
			Error string          `json:"error"`
		}
		require.NoError(t, json.Unmarshal(reply.Data, &envelope))
		return QueryResponse{ID: envelope.ID, Error: envelope.Error}, envelope.Data
	}

	resp, data := request(OpConcept, gateway.ConceptQuery{Label: "Morals"}, "trace-7")
	assert.Equal(t, "trace-7", resp.ID)
	assert.Empty(t, resp.Error)
	var concept gateway.ConceptResponse
	require.NoError(t, json.Unmarshal(data, &concept))
	assert.Equal(t, fixtures.ID(fixtures.Morals).String(), concept.Concept)

	resp, data = request(OpNeighborhood, gateway.NeighborhoodRequest{Seed: fixtures.Morals, Threshold: 0.8}, "")
	assert.Empty(t, resp.Error)
	var hood gateway.NeighborhoodResponse
	require.NoError(t, json.Unmarshal(data, &hood))
	assert.Len(t, hood.Concepts, 2)
}
