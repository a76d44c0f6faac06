// Package pipeline runs one contract through rendering, e-signature, billing, task
// logging and reporting.
//
// The chain from rendering through field placement is fatal: a failure there stops
// the run with an explicit failure result and nothing is rolled back. Everything
// after it is best-effort and recorded per stage on the Result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contractflow/internal/archive"
	"contractflow/internal/contract"
	"contractflow/internal/document"
	"contractflow/internal/pipeline/metrics"
	"contractflow/internal/providers"
	"contractflow/internal/providers/esign"
	"contractflow/internal/providers/tracker"
	"contractflow/pkg/requestcontext"
)

const tracerName = "contractflow/internal/pipeline"

// Service orchestrates a run.
type Service struct {
	renderer Renderer
	esign    ESign
	billing  Billing
	tracker  Tracker
	archiver Archiver
	reporter Reporter
	ledger   Ledger

	parseOpts contract.ParseOptions
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithArchiver enables the archive stage.
func WithArchiver(a Archiver) Option {
	return func(s *Service) {
		s.archiver = a
	}
}

func WithReporter(r Reporter) Option {
	return func(s *Service) {
		s.reporter = r
	}
}

// WithLedger enables run recording.
func WithLedger(l Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

// WithStrictVariant rejects unknown contract types instead of defaulting them.
func WithStrictVariant(strict bool) Option {
	return func(s *Service) {
		s.parseOpts.StrictVariant = strict
	}
}

// WithClock sets the clock for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(renderer Renderer, es ESign, billing Billing, tr Tracker, opts ...Option) *Service {
	s := &Service{
		renderer: renderer,
		esign:    es,
		billing:  billing,
		tracker:  tr,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate parses a raw submission. Validation failures wrap ErrSkipped and a
// *contract.ValidationError.
func (s *Service) Validate(ctx context.Context, sub contract.Submission) (contract.Request, error) {
	req, err := contract.Parse(sub, requestcontext.Now(ctx), s.parseOpts)
	if err != nil {
		s.metrics.IncrementRun("unknown", "skipped")
		s.logger.InfoContext(ctx, "submission skipped",
			"request_id", requestcontext.RequestID(ctx),
			"source", requestcontext.Source(ctx),
			"reason", err.Error(),
		)
		return contract.Request{}, fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	if req.VariantDefaulted {
		s.logger.WarnContext(ctx, "unknown contract type defaulted to sprint1",
			"request_id", requestcontext.RequestID(ctx),
			"contract_type", sub.ContractType,
		)
	}
	return req, nil
}

// Submit validates sub and runs it synchronously.
func (s *Service) Submit(ctx context.Context, sub contract.Submission, origin Origin) (*Result, error) {
	req, err := s.Validate(ctx, sub)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, NewJob(req, origin, requestcontext.Now(ctx)))
}

// Run executes the pipeline for one job. A fatal-chain failure returns the failure
// Result together with a *StageError; best-effort failures only mark the Result.
func (s *Service) Run(ctx context.Context, job Job) (*Result, error) {
	req := job.Request
	ctx, span := s.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", job.ID),
		attribute.String("contract.variant", string(req.Variant)),
		attribute.String("intake.source", job.Origin.Source),
	))
	defer span.End()

	started := s.now()
	res := newResult(job, started)
	logger := s.logger.With("run_id", job.ID, "request_id", job.Origin.RequestID)
	logger.InfoContext(ctx, "pipeline run started",
		"company", req.ClientCompany,
		"variant", req.Variant,
		"amount", req.Amount.USD(),
		"source", job.Origin.Source,
	)

	fatal := func(stage Stage, err error) (*Result, error) {
		res.Success = false
		res.Stage = stage
		res.Error = err.Error()
		span.SetStatus(codes.Error, string(stage))
		logger.ErrorContext(ctx, "pipeline run failed", "stage", stage, "error", err)
		s.finish(ctx, logger, job, res, started)
		return res, &StageError{Stage: stage, Err: err}
	}

	var doc []byte
	err := s.stage(ctx, StageRender, func(context.Context) error {
		var err error
		doc, err = s.renderer.Render(req)
		return err
	})
	if err != nil {
		return fatal(StageRender, err)
	}

	var token string
	err = s.stage(ctx, StageAuthenticate, func(ctx context.Context) error {
		var err error
		token, err = s.esign.Authenticate(ctx)
		return err
	})
	if err != nil {
		return fatal(StageAuthenticate, err)
	}

	var docID string
	err = s.stage(ctx, StageUpload, func(ctx context.Context) error {
		var err error
		docID, err = s.esign.Upload(ctx, token, document.Filename(req), doc)
		return err
	})
	if err != nil {
		return fatal(StageUpload, err)
	}
	res.ESign = &ESignResult{DocumentID: docID}

	var meta *esign.Document
	err = s.stage(ctx, StageMetadata, func(ctx context.Context) error {
		var err error
		meta, err = s.esign.Document(ctx, token, docID)
		return err
	})
	if err != nil {
		return fatal(StageMetadata, err)
	}

	err = s.stage(ctx, StagePlaceFields, func(ctx context.Context) error {
		return s.esign.PlaceFields(ctx, token, docID, int(meta.PageCount))
	})
	if err != nil {
		return fatal(StagePlaceFields, err)
	}

	// Signing link never fails the run: the client falls back to the viewer URL.
	_ = s.stage(ctx, StageSigningLink, func(ctx context.Context) error {
		link, err := s.esign.SigningLink(ctx, token, docID, req.ClientEmail)
		res.ESign.SigningLink = link.URL
		res.ESign.LinkType = string(link.Type)
		if err != nil {
			logger.WarnContext(ctx, "using viewer link", "document_id", docID, "error", err)
		}
		return err
	})

	if s.esign.SendEmailInvite() {
		err = s.stage(ctx, StageEmailInvite, func(ctx context.Context) error {
			return s.esign.SendInvite(ctx, token, docID, req.ClientEmail)
		})
		if err != nil {
			res.ESign.Error = err.Error()
			logger.WarnContext(ctx, "email invite failed", "document_id", docID, "error", err)
		} else {
			res.ESign.EmailInviteSent = true
		}
	}

	res.Payment = &PaymentResult{}
	err = s.stage(ctx, StageInvoice, func(ctx context.Context) error {
		inv, err := s.billing.Bill(ctx, req)
		if inv != nil {
			res.Payment = &PaymentResult{
				CustomerID:     inv.CustomerID,
				InvoiceID:      inv.InvoiceID,
				InvoiceURL:     inv.InvoiceURL,
				SubscriptionID: inv.SubscriptionID,
				Mode:           string(inv.Mode),
			}
		}
		return err
	})
	if err != nil {
		res.Payment.Error = err.Error()
		logger.WarnContext(ctx, "invoice failed", "error", err)
	}

	res.Task = &TaskResult{}
	err = s.stage(ctx, StageTask, func(ctx context.Context) error {
		created, err := s.tracker.CreateTask(ctx, tracker.NewContractTask(req, tracker.References{
			DocumentID:  docID,
			SigningLink: res.ESign.SigningLink,
			InvoiceID:   res.Payment.InvoiceID,
			InvoiceURL:  res.Payment.InvoiceURL,
		}))
		if err != nil {
			return err
		}
		res.Task.TaskID = created.ID
		res.Task.TaskURL = created.URL
		return nil
	})
	if err != nil {
		res.Task.Error = err.Error()
		logger.WarnContext(ctx, "task creation failed", "error", err)
	}

	if s.archiver != nil {
		res.Archive = &ArchiveResult{}
		key := archive.ObjectKey(job.ID, started, document.Filename(req))
		err = s.stage(ctx, StageArchive, func(ctx context.Context) error {
			obj, err := s.archiver.Put(ctx, key, doc)
			if obj != nil {
				res.Archive.ObjectKey = obj.Key
				res.Archive.URL = obj.URL
			}
			return err
		})
		if err != nil {
			res.Archive.Error = err.Error()
			logger.WarnContext(ctx, "archive failed", "key", key, "error", err)
		}
	}

	res.Success = true
	s.finish(ctx, logger, job, res, started)
	return res, nil
}

// stage runs fn in its own span and records its duration and failure.
func (s *Service) stage(ctx context.Context, stage Stage, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "pipeline."+string(stage))
	defer span.End()

	start := s.now()
	err := fn(ctx)
	s.metrics.ObserveStage(string(stage), s.now().Sub(start))
	if err != nil {
		category := providers.GetCategory(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(category))
		s.metrics.IncrementStageFailure(string(stage), string(category))
	}
	return err
}

// finish reports and records a run. Failures here are logged only.
func (s *Service) finish(ctx context.Context, logger *slog.Logger, job Job, res *Result, started time.Time) {
	res.FinishedAt = s.now()
	outcome := "success"
	if !res.Success {
		outcome = "failed"
	}
	s.metrics.IncrementRun(string(job.Request.Variant), outcome)
	s.metrics.ObserveRun(res.FinishedAt.Sub(started))

	if s.reporter != nil {
		if err := s.stage(ctx, StageReport, func(ctx context.Context) error {
			return s.reporter.Report(ctx, job, res)
		}); err != nil {
			logger.ErrorContext(ctx, "failed to report run", "error", err)
		}
	}
	if s.ledger != nil {
		if err := s.stage(ctx, StageLedger, func(ctx context.Context) error {
			return s.ledger.Record(ctx, job, res)
		}); err != nil {
			logger.ErrorContext(ctx, "failed to record run", "error", err)
		}
	}

	logger.InfoContext(ctx, "pipeline run finished",
		"success", res.Success,
		"stage", res.Stage,
		"document_id", documentID(res),
		"stage_errors", res.StageErrors(),
		"duration", res.FinishedAt.Sub(started),
	)
}

func documentID(res *Result) string {
	if res.ESign == nil {
		return ""
	}
	return res.ESign.DocumentID
}
