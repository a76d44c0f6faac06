package handoff

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"contractflow/internal/dedupe"
	"contractflow/internal/pipeline"
	"contractflow/pkg/platform/sentinel"
)

// Worker runs handed-off jobs once per job id.
type Worker struct {
	runner  Runner
	claims  dedupe.Store
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// NewWorker bounds each run by timeout. A zero timeout leaves runs unbounded.
func NewWorker(runner Runner, claims dedupe.Store, ttl, timeout time.Duration, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{runner: runner, claims: claims, ttl: ttl, timeout: timeout, logger: logger}
}

// Handle runs job unless its id was already claimed, in which case it returns
// sentinel.ErrDuplicate. The run is detached from ctx: once started it finishes
// even if the caller goes away. Pipeline failures are reported by the pipeline
// itself and are not returned; any other failure releases the claim so a
// redelivery runs the job again.
func (w *Worker) Handle(ctx context.Context, job pipeline.Job) error {
	key := dedupe.Key("job", job.ID)
	if w.claims != nil {
		first, err := w.claims.Claim(ctx, key, w.ttl)
		if err != nil {
			return err
		}
		if !first {
			w.logger.InfoContext(ctx, "skipping duplicate job", "run_id", job.ID)
			return sentinel.ErrDuplicate
		}
	}

	runCtx, cancel := detach(ctx, w.timeout)
	defer cancel()
	_, err := w.runner.Run(runCtx, job)
	var stageErr *pipeline.StageError
	if err == nil || errors.As(err, &stageErr) {
		return nil
	}
	if w.claims != nil {
		if relErr := w.claims.Release(context.WithoutCancel(ctx), key); relErr != nil {
			w.logger.WarnContext(ctx, "could not release job claim", "run_id", job.ID, "error", relErr)
		}
	}
	return err
}

func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.WithoutCancel(ctx))
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
