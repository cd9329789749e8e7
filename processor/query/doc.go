// Package query serves the overlay over NATS request/reply.
//
// One subject per operation is subscribed under a configurable prefix,
// "ontology.query" by default:
//
//	ontology.query.concept       {"label": "Morals"}
//	ontology.query.label         {"concept": "D009014"}
//	ontology.query.pairwise      {"a": "D009014", "b": "D004989", "strict": false}
//	ontology.query.groupwise     {"set_a": [...], "set_b": [...]}
//	ontology.query.neighborhood  {"seed": "D009014", "threshold": 0.9}
//
// Every reply is a QueryResponse envelope carrying the query ID (taken from
// the X-Request-ID header when present), and either data or an error.
// Similarity queries are fail-soft exactly as over HTTP. Neighborhood
// expansion is unbounded in cost, so those requests pass a token-bucket
// limiter and run under a timeout.
//
// Messages are answered by a fixed pool of workers. When the pool's queue is
// full a request is rejected at once with a rate-limited error, so slow
// expansions cannot pile up unbounded work.
package query
