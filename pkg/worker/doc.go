// Package worker provides a generic worker pool with a bounded queue.
//
// A fixed number of goroutines take work items from a buffered channel.
// Submit never blocks: when the queue is full it returns ErrQueueFull, which
// the caller turns into backpressure (the NATS query processor answers such
// requests with a rate-limited error instead of queueing without bound).
//
//	pool, err := worker.NewPool(8, 256, func(ctx context.Context, req request) error {
//		return answer(ctx, req)
//	}, worker.WithMetricsRegistry[request](registry, "nats_queries"))
//	if err != nil {
//		return err
//	}
//	if err := pool.Start(ctx); err != nil {
//		return err
//	}
//	defer pool.Stop(5 * time.Second)
//
// Statistics are always tracked and returned by Stats. WithMetricsRegistry
// also exports them as ontosim_worker_pool_* series labelled with the pool
// name.
package worker
