package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/angeloszaimis/callchain/config"
	"github.com/angeloszaimis/callchain/internal/handler"
	"github.com/angeloszaimis/callchain/internal/healthcheck"
	"github.com/angeloszaimis/callchain/internal/httpserver"
	"github.com/angeloszaimis/callchain/internal/lifecycle"
	"github.com/angeloszaimis/callchain/internal/metrics"
	"github.com/angeloszaimis/callchain/internal/upstream"
)

const metricsBufferSize = 1000

// newNode assembles the components of one node into a RunGroup.
func newNode(cfg *config.Config, log *slog.Logger) (*RunGroup, error) {
	name := string(cfg.Node)
	recorder := metrics.NewRecorder(name)

	var (
		group     RunGroup
		collector *metrics.Collector
		router    http.Handler
	)

	switch cfg.Node {
	case config.NodeEcho:
		collector = metrics.NewCollector(metricsBufferSize, name, echoRoutes, recorder, log)
		router = newEchoRouter(handler.NewEchoHandler(log))

	case config.NodeGateway:
		collector = metrics.NewCollector(metricsBufferSize, name, gatewayRoutes, recorder, log)

		base, err := url.Parse(cfg.Upstream.URL)
		if err != nil {
			return nil, fmt.Errorf("parse upstream url: %w", err)
		}

		client := upstream.New(base, upstream.Options{
			Name:     cfg.Upstream.Name,
			Timeout:  cfg.UpstreamTimeout(),
			Logger:   log,
			Observer: collector,
		})
		router = newGatewayRouter(handler.NewGatewayHandler(log, client))

		group.Add(healthcheck.New(client, cfg.HealthInterval(), log, collector))

		log.Info("Upstream configured",
			slog.String("upstream", client.Name()),
			slog.String("url", client.URL().String()),
			slog.Duration("timeout", client.Timeout()))

	default:
		return nil, fmt.Errorf("unknown node %q", cfg.Node)
	}

	srv, err := httpserver.New(name, cfg.Server.Address, lifecycle.New(log, collector).Wrap(router), log)
	if err != nil {
		return nil, err
	}
	group.Add(srv)
	group.Add(collector)

	if cfg.Metrics.Address != "" {
		diag, err := httpserver.New(name+"-diagnostics", cfg.Metrics.Address,
			metrics.NewDiagnosticsHandler(collector, metrics.NewRegistry(recorder)), log)
		if err != nil {
			return nil, err
		}
		group.Add(diag)
	}

	return &group, nil
}
