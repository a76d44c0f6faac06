package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"contractflow/internal/app"
	"contractflow/internal/handoff"
	"contractflow/internal/intake/handler"
	"contractflow/internal/platform/config"
	"contractflow/internal/platform/httpserver"
	"contractflow/internal/platform/kafka"
	"contractflow/internal/platform/logger"
	"contractflow/internal/platform/metrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	components, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Warn("closing components", "error", err)
		}
	}()

	dispatcher, waitDispatch, closeDispatch, err := newDispatcher(ctx, cfg, components, log)
	if err != nil {
		return err
	}
	defer closeDispatch()

	deps := handler.Deps{
		Pipeline:   components.Pipeline,
		Dispatcher: dispatcher,
		Modals:     components.Chat,
		Tracker:    components.Tracker,
		Claims:     components.Claims,
		Providers:  components.Providers,
		Metrics:    metrics.New(),
	}
	if components.Ledger != nil {
		deps.Runs = components.Ledger
	}
	if cfg.Handoff.Secret != "" {
		deps.Tokens = handoff.NewTokens(cfg.Handoff.Secret)
		deps.Processor = handoff.NewWorker(components.Pipeline, components.Claims, cfg.Dedupe.TTL, cfg.Handoff.Timeout, log)
	}

	h := handler.New(handler.Config{
		ServiceName:        cfg.ServiceName,
		Version:            cfg.ServiceVersion,
		Build:              cfg.BuildSHA,
		APIKey:             cfg.APIKey,
		SlackSigningSecret: cfg.Slack.SigningSecret,
		DedupeTTL:          cfg.Dedupe.TTL,
		RunTimeout:         cfg.Handoff.Timeout,
		Features:           app.Features(cfg, components),
	}, deps, log)

	srv := httpserver.New(cfg.Addr, h.Routes())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting contractflow",
			"addr", cfg.Addr,
			"version", cfg.ServiceVersion,
			"handoff_mode", dispatcher.Mode(),
			"api_key_required", cfg.APIKey != "",
		)
		return httpserver.Run(gctx, srv, 10*time.Second)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Let inline hand-offs started before shutdown finish.
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Handoff.Timeout)
		defer cancel()
		return waitDispatch(drainCtx)
	})
	return g.Wait()
}

// newDispatcher picks the hand-off for HANDOFF_MODE and returns a drain function
// for shutdown and a closer for its resources.
func newDispatcher(ctx context.Context, cfg config.Server, c *app.Components, log *slog.Logger) (handoff.Dispatcher, func(context.Context) error, func(), error) {
	noWait := func(context.Context) error { return nil }
	switch cfg.Handoff.Mode {
	case config.HandoffHTTP:
		d := handoff.NewHTTP(cfg.Handoff.URL, handoff.NewTokens(cfg.Handoff.Secret), cfg.Handoff.Timeout, log)
		return d, noWait, func() {}, nil
	case config.HandoffKafka:
		client, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, 3, 1); err != nil {
			log.Warn("could not ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		return handoff.NewKafka(client, cfg.Kafka.Topic), noWait, client.Close, nil
	default:
		d := handoff.NewInline(c.Pipeline, cfg.Handoff.Timeout, log)
		return d, d.Wait, func() {}, nil
	}
}
