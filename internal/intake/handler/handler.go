// Package handler exposes the HTTP intake surface: the JSON webhook, the Slack
// slash command and modal callbacks, the hand-off receiver and operator routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contractflow/internal/contract"
	"contractflow/internal/dedupe"
	"contractflow/internal/handoff"
	"contractflow/internal/ledger"
	"contractflow/internal/pipeline"
	"contractflow/internal/platform/metrics"
	"contractflow/internal/platform/middleware"
	"contractflow/internal/providers"
	"contractflow/internal/providers/chat"
	"contractflow/internal/providers/tracker"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Pipeline validates submissions and runs jobs.
type Pipeline interface {
	Validate(ctx context.Context, sub contract.Submission) (contract.Request, error)
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

// Modals opens Slack views.
type Modals interface {
	OpenView(ctx context.Context, triggerID string, view chat.View) error
}

// TrackerProbe is the read-only tracker call behind /debug/tracker.
type TrackerProbe interface {
	List(ctx context.Context) (*tracker.List, error)
}

// RunLister backs /debug/runs.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]ledger.Entry, error)
}

// Processor runs a job received through the HTTP hand-off.
type Processor interface {
	Handle(ctx context.Context, job pipeline.Job) error
}

// Config is the static part of the handler's configuration.
type Config struct {
	ServiceName        string
	Version            string
	Build              string
	APIKey             string
	SlackSigningSecret string
	DedupeTTL          time.Duration
	// RunTimeout bounds a pipeline run started by a webhook. The run does not
	// follow the request context.
	RunTimeout time.Duration
	// Features is echoed by /debug/config.
	Features map[string]bool
}

// Deps are the collaborators. Only Pipeline and Dispatcher are required; routes
// whose collaborator is nil answer 404.
type Deps struct {
	Pipeline   Pipeline
	Dispatcher handoff.Dispatcher
	Modals     Modals
	Tracker    TrackerProbe
	Runs       RunLister
	Claims     dedupe.Store
	Tokens     *handoff.Tokens
	Processor  Processor
	Providers  *providers.ProviderRegistry
	Metrics    *metrics.Metrics
}

// Handler serves every intake route.
type Handler struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 24 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "contractflow"
	}
	return &Handler{cfg: cfg, deps: deps, logger: logger, now: time.Now}
}

// Routes builds the router with the shared middleware chain.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime(h.now))
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger, h.deps.Metrics))
	h.Register(r)
	return r
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	requireKey := middleware.RequireAPIKey(h.cfg.APIKey, h.logger)

	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.With(requireKey).HandleFunc("/webhook/contract", h.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(h.verifySlack)
		r.Post("/slack/commands", h.handleSlashCommand)
		r.Post("/slack/interactions", h.handleInteraction)
	})

	r.Post("/internal/process", h.handleProcess)

	r.Group(func(r chi.Router) {
		r.Use(requireKey)
		r.Get("/debug/config", h.handleDebugConfig)
		r.Get("/debug/tracker", h.handleDebugTracker)
		r.Get("/debug/runs", h.handleDebugRuns)
	})
}

// claim reports whether key is new. Store failures fail open so a Redis outage
// never blocks intake.
func (h *Handler) claim(ctx context.Context, source, id string) bool {
	key := dedupe.Key(source, id)
	if key == "" || h.deps.Claims == nil {
		return true
	}
	first, err := h.deps.Claims.Claim(ctx, key, h.cfg.DedupeTTL)
	if err != nil {
		h.logger.WarnContext(ctx, "idempotency check failed, continuing", "key", key, "error", err)
		return true
	}
	if !first {
		h.deps.Metrics.IncrementDuplicate(source)
	}
	return first
}

// release undoes claim when the submission was not accepted after all.
func (h *Handler) release(ctx context.Context, source, id string) {
	key := dedupe.Key(source, id)
	if key == "" || h.deps.Claims == nil {
		return
	}
	if err := h.deps.Claims.Release(ctx, key); err != nil {
		h.logger.WarnContext(ctx, "failed to release idempotency key", "key", key, "error", err)
	}
}
