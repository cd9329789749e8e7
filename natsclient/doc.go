// Package natsclient manages the NATS connection the query processor serves
// on.
//
// The client wraps nats.go with connection status tracking, a circuit breaker
// for repeated dial failures, and status callbacks that feed the metric
// package. Reconnection after a successful connect is left to nats.go; the
// breaker only governs fresh Connect attempts.
//
// # Basic Usage
//
//	client, err := natsclient.NewClient([]string{"nats://localhost:4222"},
//	    natsclient.WithClientName("ontosim"),
//	    natsclient.WithMetrics(registry.CoreMetrics()),
//	    natsclient.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.ConnectWithRetry(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(context.Background())
//
//	err = client.Subscribe("ontology.query.pairwise", "ontosim", handler)
//
// # Circuit Breaker
//
// After five consecutive failed Connect calls (configurable with
// WithCircuitBreakerThreshold) the status becomes StatusCircuitOpen and
// Connect returns ErrCircuitOpen until the backoff elapses. The backoff starts
// at one second and doubles per round up to WithMaxBackoff. A successful
// connect resets it.
//
// # Testing
//
// NewTestClient starts a NATS container through testcontainers and returns a
// connected Client. Tests that use it should skip under -short.
package natsclient
