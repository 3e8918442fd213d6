package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/callchain/internal/loadtest"
)

func newLoadtestCmd() *cobra.Command {
	var (
		opts    loadtest.Options
		outJSON string
		outCSV  string
	)

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Send concurrent requests to a node and summarize latency and outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			report, err := loadtest.Run(ctx, opts)
			if err != nil {
				return err
			}

			if err := report.WriteText(cmd.OutOrStdout()); err != nil {
				return err
			}

			if outCSV != "" {
				if err := writeFile(outCSV, report.WriteCSV); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
			}

			if outJSON != "" {
				err := writeFile(outJSON, func(w io.Writer) error {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				})
				if err != nil {
					return fmt.Errorf("write json: %w", err)
				}
			}

			if report.Failure > 0 {
				return fmt.Errorf("%d of %d requests failed", report.Failure, report.TotalSent)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.URL, "url", "http://127.0.0.1:8081/call-echo?msg=ping", "target URL")
	flags.IntVar(&opts.Concurrency, "concurrency", loadtest.DefaultConcurrency, "number of concurrent workers")
	flags.IntVar(&opts.Requests, "requests", loadtest.DefaultRequests, "total number of requests to send")
	flags.DurationVar(&opts.Timeout, "timeout", loadtest.DefaultTimeout, "per-request timeout")
	flags.StringVar(&outJSON, "out", "", "write the JSON summary to this file")
	flags.StringVar(&outCSV, "csv", "", "write per-request rows to this CSV file")

	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
