package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/orcasql/orcasql/internal"
	"github.com/orcasql/orcasql/internal/engine"
	"github.com/orcasql/orcasql/server/wire"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to YAML config file")
		addr    = flag.String("addr", "", "listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &wire.Server{
		Addr:   cfg.Server.Addr,
		Engine: engine.NewInMemory(logger),
		Logger: logger,
	}
	if err := srv.Serve(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
