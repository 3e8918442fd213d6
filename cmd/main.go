package main

import (
	"context"
	"log/slog"
	"os"

	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("callchain exited", slog.Any("err", err))
		os.Exit(1)
	}
}
