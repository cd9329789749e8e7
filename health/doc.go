// Package health reports whether the ontosim service is able to answer
// queries.
//
// A Monitor aggregates per-component statuses. The overlay reports once after
// construction; the NATS client pushes status changes from its connection
// callbacks; the HTTP gateway serves the aggregate on /health. Error text is
// sanitized before it reaches a status message, so ontology paths, server
// URLs and credentials are never exposed.
//
//	monitor := health.NewMonitor()
//	monitor.UpdateHealthy("overlay", "12 concepts loaded")
//	monitor.Register("nats", func() health.Status {
//	    return health.FromError("nats", natsErr(), "connected")
//	})
//	status := monitor.AggregateHealth("ontosim")
package health
