// Command worker consumes submissions handed off through Kafka and runs the
// pipeline for each, committing offsets only after a job has finished.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"contractflow/internal/app"
	"contractflow/internal/handoff"
	"contractflow/internal/platform/config"
	"contractflow/internal/platform/httpserver"
	"contractflow/internal/platform/kafka"
	"contractflow/internal/platform/logger"
	"contractflow/pkg/platform/httputil"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).With("component", "worker")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("worker requires KAFKA_BROKERS")
	}
	components, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Warn("closing components", "error", err)
		}
	}()

	consumer, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer consumer.Close()

	worker := handoff.NewWorker(components.Pipeline, components.Claims, cfg.Dedupe.TTL, cfg.Handoff.Timeout, log)

	// The worker only serves health and metrics.
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": cfg.ServiceName + "-worker"})
	})
	r.Handle("/metrics", promhttp.Handler())
	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("consuming", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.Group, "brokers", cfg.Kafka.Brokers)
		return handoff.Consume(gctx, consumer, worker.Handle, log)
	})
	g.Go(func() error {
		return httpserver.Run(gctx, srv, 5*time.Second)
	})
	return g.Wait()
}
