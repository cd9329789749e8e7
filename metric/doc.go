// Package metric provides Prometheus metrics for the ontology overlay and an
// HTTP server exposing them.
//
// A MetricsRegistry wraps a private Prometheus registry. It registers the
// overlay metrics (Metrics) and Go runtime collectors on creation, and lets
// components such as the similarity memo add their own collectors through the
// MetricsRegistrar interface. Registering the same owner/name pair twice is an
// invalid-class error.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        logger.Error("Metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Stop(context.Background())
//
//	registry.CoreMetrics().RecordOntology(30000, 48000)
//
// # Overlay Metrics
//
// All overlay metrics use the namespace "ontosim":
//
//   - ontosim_ontology_concepts, ontosim_ontology_edges
//   - ontosim_sanitizer_edges_removed, ontosim_sanitizer_dag_valid
//   - ontosim_labels_entries, ontosim_labels_collisions
//   - ontosim_similarity_computations_total{kind,status}
//   - ontosim_similarity_duration_seconds{kind}
//   - ontosim_neighborhood_size, ontosim_neighborhood_evaluations_total
//   - ontosim_transport_requests_total{transport,operation,status}
//   - ontosim_nats_connected, ontosim_nats_reconnects_total
//
// Record methods are no-ops on a nil *Metrics, so components can take an
// optional *Metrics without checking it.
package metric
