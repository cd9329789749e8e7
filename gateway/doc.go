// Package gateway holds what the HTTP and NATS transports share: the request
// and response payloads, the Service interface the overlay satisfies, and one
// function per query operation.
//
// Similarity operations are fail-soft. A failed computation scores 0 and, if
// the request set strict, carries the failure text in ScoreResponse.Error.
// Neighborhood expansion is not fail-soft; its errors are returned to the
// transport, which maps them to a 422 or an error reply. Unknown labels and
// concepts are reported with ErrNotFound.
package gateway
