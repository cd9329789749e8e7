// Package cache provides a generic, thread-safe LRU cache with always-on
// statistics and optional Prometheus metrics.
//
// The similarity engine memoizes pairwise scores in one of these caches:
//
//	type pair struct{ a, b int }
//
//	scores, err := cache.NewLRU(100000,
//		cache.WithMetrics[pair, float64](registry, "similarity_memo"),
//	)
//	if err != nil {
//		return err
//	}
//	scores.Set(pair{3, 7}, 0.42)
//	s, ok := scores.Get(pair{3, 7})
//
// Keys are any comparable type; the zero key is rejected by Set and Delete.
//
// # Observability
//
// Statistics are always collected with atomic counters and are available
// through Stats. WithMetrics additionally exports the same counters to a
// metric.MetricsRegistry under the ontosim_cache_* names, labelled with the
// component prefix. Registering the same prefix twice on one registry fails.
//
// # Eviction
//
// When a Set pushes the cache past its capacity the least recently used entry
// is removed. WithEvictionCallback is called for every removed entry, outside
// the cache lock, so it may call back into the cache.
package cache
