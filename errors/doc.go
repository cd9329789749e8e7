// Package errors provides the error classification used across ontosim.
//
// # Error Classification
//
// Every error surfaced by a component belongs to one of three classes:
//
//   - Transient: connection problems, cancellation, rate limiting (retry may succeed)
//   - Invalid: bad input such as an unknown concept or a malformed request (do not retry)
//   - Fatal: the overlay cannot become usable, e.g. the ontology failed to load
//     or the sanitized graph is not a rooted DAG
//
// # Domain Errors
//
// The overlay taxonomy maps onto sentinels that match with errors.Is:
//
//	ErrLoad            ontology source missing or malformed (fatal)
//	ErrGraphIntegrity  sanitization did not yield a rooted DAG (fatal)
//	ErrSimilarity      one pairwise/groupwise computation failed (invalid)
//
// ErrSimilarity is usually combined with its cause:
//
//	return errors.WithCause(errors.ErrSimilarity, errors.ErrUnknownConcept, string(id))
//
// Lookups that miss (label or concept not found) are not errors; they return
// a (value, false) pair.
//
// # Error Wrapping Pattern
//
// Wrapping follows the format
//
//	"component.method: action failed: %w"
//
// and the classified wrappers attach a class to the chain:
//
//	errors.WrapTransient(err, "Client", "Connect", "dial NATS")
//	errors.WrapInvalid(err, "Engine", "Pairwise", "resolve concept")
//	errors.WrapFatal(err, "Overlay", "New", "load ontology")
//
// Classify prefers an explicit ClassifiedError in the chain and falls back to
// the sentinels above.
package errors
