// Package metrics collects request and forwarding statistics for a node.
//
// Instrumented components report through a Collector, which implements the
// observer interfaces of the lifecycle middleware, the forwarding client and
// the health probe. Reports are turned into events and pushed onto a buffered
// channel without blocking; a single goroutine drains the channel and updates
// both an in-memory store and the Prometheus series:
//
//	collector := metrics.NewCollector(1000, "gateway", routes, recorder, logger)
//	go collector.Run(ctx)
//
//	mw := lifecycle.New(logger, collector)
//
// When the buffer is full events are dropped and counted rather than delaying
// the request path. On shutdown the collector drains what is already queued.
//
// The store keeps the last 1000 latencies per route and serves average and
// P50/P95/P99 figures through Snapshot, exposed as JSON on /stats next to the
// Prometheus /metrics endpoint of the diagnostics listener.
package metrics
