package metrics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/angeloszaimis/callchain/internal/lifecycle"
	"github.com/angeloszaimis/callchain/internal/upstream"
)

// UnmatchedRoute labels requests for paths the node does not serve.
const UnmatchedRoute = "unmatched"

type EventType string

const (
	EventRequestCompleted EventType = "request_completed"
	EventForwardCompleted EventType = "forward_completed"
	EventUpstreamHealth   EventType = "upstream_health"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Method     string
	Route      string
	StatusCode int
	Duration   time.Duration
	Outcome    string
	Healthy    bool
}

type Collector struct {
	node     string
	routes   map[string]struct{}
	eventCh  chan MetricEvent
	metrics  *Metrics
	recorder *Recorder
	logger   *slog.Logger
	dropped  atomic.Int64
}

// NewCollector creates a collector for node. Paths outside routes are
// recorded as UnmatchedRoute. recorder may be nil.
func NewCollector(bufferSize int, node string, routes []string, recorder *Recorder, logger *slog.Logger) *Collector {
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}

	return &Collector{
		node:     node,
		routes:   known,
		eventCh:  make(chan MetricEvent, bufferSize),
		metrics:  NewMetrics(),
		recorder: recorder,
		logger:   logger,
	}
}

// ObserveRequest implements lifecycle.Observer.
func (c *Collector) ObserveRequest(done lifecycle.Completion) {
	c.emit(MetricEvent{
		Type:       EventRequestCompleted,
		Timestamp:  time.Now(),
		Method:     done.Method,
		Route:      c.route(done.Path),
		StatusCode: done.Status,
		Duration:   done.Elapsed,
	})
}

// ObserveForward implements upstream.Observer.
func (c *Collector) ObserveForward(state upstream.State, elapsed time.Duration) {
	c.emit(MetricEvent{
		Type:      EventForwardCompleted,
		Timestamp: time.Now(),
		Outcome:   state.String(),
		Duration:  elapsed,
	})
}

// ObserveUpstreamHealth implements healthcheck.Observer.
func (c *Collector) ObserveUpstreamHealth(healthy bool) {
	c.emit(MetricEvent{
		Type:      EventUpstreamHealth,
		Timestamp: time.Now(),
		Healthy:   healthy,
	})
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Run processes events until ctx is cancelled, then drains the buffer.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return nil
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot(c.node)
}

func (c *Collector) emit(event MetricEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
	}
}

func (c *Collector) route(path string) string {
	if _, ok := c.routes[path]; ok {
		return path
	}
	return UnmatchedRoute
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestCompleted:
		c.metrics.RecordRequest(event.Route, event.Duration, event.StatusCode)
		if c.recorder != nil {
			c.recorder.observeRequest(event.Method, event.Route, event.StatusCode, event.Duration)
		}

	case EventForwardCompleted:
		c.metrics.RecordForward(event.Outcome, event.Duration)
		if c.recorder != nil {
			c.recorder.observeForward(event.Outcome, event.Duration)
		}

	case EventUpstreamHealth:
		c.metrics.UpdateUpstreamHealth(event.Healthy)
		if c.recorder != nil {
			c.recorder.observeUpstreamHealth(event.Healthy)
		}
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}
