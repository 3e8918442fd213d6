package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/callchain/config"
	"github.com/angeloszaimis/callchain/pkg/logger"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "callchain",
		Short:         "Echo node and the gateway that calls it",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/<node>.yaml)")

	root.AddCommand(
		newNodeCmd(config.NodeEcho, "Serve /health and /echo", &cfgFile),
		newNodeCmd(config.NodeGateway, "Serve /health and /call-echo, forwarding to the echo node", &cfgFile),
		newLoadtestCmd(),
	)

	return root
}

func newNodeCmd(node config.Node, short string, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(node),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, node, config.Options{
				ConfigFile: *cfgFile,
				Flags:      cmd.Flags(),
			})
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "listen address, host:port")
	flags.String("metrics-addr", "", "diagnostics listen address serving /metrics and /stats (disabled when empty)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	if node == config.NodeGateway {
		flags.String("upstream", "", "base URL of the echo node")
	}

	return cmd
}

func run(ctx context.Context, node config.Node, opts config.Options) error {
	cfg, err := config.Load(node, opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		AddSource:   true,
		Environment: cfg.Server.Environment,
		Service:     string(node),
	})

	group, err := newNode(cfg, log)
	if err != nil {
		log.Error("Failed to assemble node", slog.Any("err", err))
		return err
	}

	log.Info("Starting node",
		slog.String("node", string(node)),
		slog.String("addr", cfg.Server.Address))

	if err := group.RunAndWait(ctx); err != nil {
		log.Error("Node stopped with error", slog.Any("err", err))
		return err
	}

	log.Info("Node stopped")
	return nil
}
