// Package app builds the pipeline and its collaborators from configuration.
// The server, the worker and the CLI share it so every binary runs the same wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"contractflow/internal/archive"
	"contractflow/internal/dedupe"
	"contractflow/internal/document"
	"contractflow/internal/ledger"
	"contractflow/internal/pipeline"
	pipelinemetrics "contractflow/internal/pipeline/metrics"
	"contractflow/internal/platform/config"
	"contractflow/internal/platform/postgres"
	"contractflow/internal/platform/redis"
	"contractflow/internal/providers"
	"contractflow/internal/providers/chat"
	"contractflow/internal/providers/esign"
	"contractflow/internal/providers/payment"
	"contractflow/internal/providers/tracker"
)

// Components is everything a binary needs to run or inspect the pipeline.
type Components struct {
	Renderer  *document.Renderer
	ESign     *esign.Client
	Payment   *payment.Client
	Tracker   *tracker.Client
	Chat      *chat.Client
	Providers *providers.ProviderRegistry
	Pipeline  *pipeline.Service
	// Ledger is nil when DATABASE_URL is unset.
	Ledger *ledger.Store
	Claims dedupe.Store

	closers []func() error
}

// NewRenderer builds the document renderer alone; it needs no network.
func NewRenderer(cfg config.Server, logger *slog.Logger) (*document.Renderer, error) {
	assets := document.LoadAssets(document.AssetConfig{
		Dir:             cfg.Assets.Dir,
		LogoBase64:      cfg.Assets.LogoBase64,
		SignatureBase64: cfg.Assets.SignatureBase64,
	}, logger)
	return document.New(document.Provider{
		Company:     cfg.Provider.Company,
		SignerName:  cfg.Provider.SignerName,
		SignerTitle: cfg.Provider.SignerTitle,
	}, document.WithAssets(assets))
}

// Build connects optional infrastructure (Redis, PostgreSQL, object storage) when
// configured and assembles the pipeline. Close releases what Build opened.
func Build(ctx context.Context, cfg config.Server, logger *slog.Logger) (*Components, error) {
	c := &Components{Providers: providers.NewProviderRegistry()}

	renderer, err := NewRenderer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	c.Renderer = renderer

	c.ESign = esign.New(esign.Config{
		BaseURL:         cfg.SignNow.APIURL,
		AppURL:          cfg.SignNow.AppURL,
		BasicToken:      cfg.SignNow.BasicToken,
		Username:        cfg.SignNow.Username,
		Password:        cfg.SignNow.Password,
		SendEmailInvite: cfg.SignNow.SendEmailInvite,
		Timeout:         cfg.SignNow.Timeout,
	}, logger)
	c.Payment = payment.New(payment.Config{BaseURL: cfg.Stripe.APIURL, SecretKey: cfg.Stripe.SecretKey}, logger)
	c.Tracker = tracker.New(tracker.Config{BaseURL: cfg.ClickUp.APIURL, Token: cfg.ClickUp.Token, ListID: cfg.ClickUp.ListID}, logger)
	c.Chat = chat.New(chat.Config{
		BaseURL:       cfg.Slack.APIURL,
		BotToken:      cfg.Slack.BotToken,
		SigningSecret: cfg.Slack.SigningSecret,
		ChannelID:     cfg.Slack.ChannelID,
	}, logger)
	for _, p := range []providers.Provider{c.ESign, c.Payment, c.Tracker, c.Chat} {
		if err := c.Providers.Register(p); err != nil {
			return nil, err
		}
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(pipelinemetrics.New()),
		pipeline.WithTracer(otel.Tracer("contractflow/pipeline")),
		pipeline.WithStrictVariant(cfg.StrictContractType),
		pipeline.WithReporter(pipeline.NewSlackReporter(c.Chat, cfg.Slack.ChannelID, cfg.Slack.DMSubmitter, logger)),
	}

	if cfg.Archive.Enabled() {
		store, err := archive.New(archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.WarnContext(ctx, "archive bucket unavailable, archiving disabled", "error", err)
		} else {
			opts = append(opts, pipeline.WithArchiver(store))
		}
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		c.closers = append(c.closers, db.Close)
		c.Ledger = ledger.New(db)
		if err := c.Ledger.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		opts = append(opts, pipeline.WithLedger(c.Ledger))
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if rdb != nil {
		c.closers = append(c.closers, rdb.Close)
		c.Claims = dedupe.NewRedisStore(rdb.Client, "")
	} else {
		c.Claims = dedupe.NewMemoryStore()
	}

	c.Pipeline = pipeline.New(c.Renderer, c.ESign, c.Payment, c.Tracker, opts...)
	return c, nil
}

// Close releases database and cache connections.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// Features lists the toggles shown by /debug/config.
func Features(cfg config.Server, c *Components) map[string]bool {
	return map[string]bool{
		"email_invite":         cfg.SignNow.SendEmailInvite,
		"strict_contract_type": cfg.StrictContractType,
		"dm_submitter":         cfg.Slack.DMSubmitter,
		"archive":              cfg.Archive.Enabled(),
		"ledger":               c.Ledger != nil,
		"logo":                 c.Renderer.HasLogo(),
		"signature_image":      c.Renderer.HasSignature(),
	}
}
