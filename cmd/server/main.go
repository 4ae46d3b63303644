package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"bellgas/internal/platform/config"
	"bellgas/internal/platform/httpserver"
	"bellgas/internal/platform/logger"
)

const sweepInterval = time.Minute

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := newApp(cfg, st, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg.Addr, cfg.HTTP, a.router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Requests still draining emit audit events, so the buffer closes
		// only once the server has stopped.
		defer a.publisher.Close()
		return srv.Run(gctx)
	})
	if worker := a.publisher.Worker(); worker != nil {
		g.Go(func() error {
			return worker.Run(context.WithoutCancel(gctx))
		})
	}
	g.Go(func() error {
		return st.sweep(gctx, sweepInterval, log)
	})

	err = g.Wait()
	if dropped := a.publisher.Dropped(); dropped > 0 {
		log.Warn("audit events dropped under load", "count", dropped)
	}
	return err
}
