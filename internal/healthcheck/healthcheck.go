package healthcheck

import (
	"context"
	"log/slog"
	"time"
)

// Target is the upstream being probed.
type Target interface {
	Probe(ctx context.Context) error
	SetHealthy(healthy bool) (changed bool)
	Name() string
}

// Observer receives every probe result.
type Observer interface {
	ObserveUpstreamHealth(healthy bool)
}

// Prober runs the periodic health check.
type Prober struct {
	target   Target
	interval time.Duration
	logger   *slog.Logger
	observer Observer
}

// New creates a Prober. observer may be nil.
func New(target Target, interval time.Duration, logger *slog.Logger, observer Observer) *Prober {
	return &Prober{
		target:   target,
		interval: interval,
		logger:   logger,
		observer: observer,
	}
}

// Run probes the target every interval until ctx is cancelled. A non-positive
// interval disables probing and Run returns immediately.
func (p *Prober) Run(ctx context.Context) error {
	if p.interval <= 0 {
		p.logger.Info("Upstream health check disabled",
			slog.String("upstream", p.target.Name()))
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Health check stopped",
				slog.String("upstream", p.target.Name()))
			return nil

		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *Prober) check(ctx context.Context) {
	err := p.target.Probe(ctx)
	if ctx.Err() != nil {
		return
	}

	healthy := err == nil
	changed := p.target.SetHealthy(healthy)

	if p.observer != nil {
		p.observer.ObserveUpstreamHealth(healthy)
	}

	if !changed {
		return
	}

	if healthy {
		p.logger.Info("Upstream is back up",
			slog.String("upstream", p.target.Name()))
	} else {
		p.logger.Warn("Upstream is down",
			slog.String("upstream", p.target.Name()),
			slog.Any("err", err))
	}
}
