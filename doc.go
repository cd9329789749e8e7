// Package ontosim overlays concept similarity on the MeSH descriptor
// hierarchy.
//
// A MeSH descriptor file is loaded into an in-memory SubClassOf graph, the
// known cycles of the MeSH release are cut, and the result is checked to be
// a rooted DAG before anything is scored. On top of that graph ontosim
// answers four kinds of question:
//
//   - which concept carries a label, and which label a concept carries
//   - how similar two concepts are (Resnik, Lin, Jiang-Conrath, Wu-Palmer)
//   - how similar two sets of concepts are (max, average, best-match average)
//   - which concepts are reachable from a seed while staying above a
//     similarity threshold
//
// # Packages
//
// Core:
//   - concept: concept identifiers and sets
//   - graph: the SubClassOf graph and its DAG checks
//   - loader/mesh: streaming MeSH XML descriptor loader
//   - similarity: information content, measures, aggregations and the memo
//   - overlay: cycle sanitizing, the label index, neighborhood expansion and
//     the fail-soft query facade
//
// Surfaces:
//   - gateway: transport-neutral request and response types
//   - gateway/http: JSON API
//   - processor/query: NATS request/reply handlers
//   - cmd/ontosim: the binary, for one-shot queries or serving
//
// Infrastructure:
//   - config: layered JSON/YAML configuration with schema validation
//   - errors: classified errors (transient, invalid, fatal)
//   - health: component health tracking
//   - metric: Prometheus metrics and the scrape server
//   - natsclient: NATS connection with circuit breaker
//   - pkg/cache: LRU cache used for score memoization
//   - pkg/worker: bounded worker pool used by the NATS processor
//
// # Binary
//
// One-shot queries print JSON on stdout and log on stderr:
//
//	ontosim --ontology desc2014.xml --pairwise D009014,D012919
//	ontosim --ontology desc2014.xml --neighborhood D009014 --threshold 0.8
//
// With a configuration file that enables http, nats or metrics the binary
// serves until SIGINT or SIGTERM:
//
//	ontosim --config configs/ontosim.yaml
//
// # Concurrency
//
// Construction is single-threaded. Once built, an overlay is read-only
// except for the score memo, which is safe for concurrent use, so one
// overlay serves every transport at once.
package ontosim
