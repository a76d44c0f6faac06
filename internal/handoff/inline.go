package handoff

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"contractflow/internal/pipeline"
	"contractflow/internal/platform/config"
)

// Inline runs jobs in a goroutine of the current process, detached from the
// request's cancellation.
type Inline struct {
	runner  Runner
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewInline(runner Runner, timeout time.Duration, logger *slog.Logger) *Inline {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inline{runner: runner, timeout: timeout, logger: logger}
}

func (d *Inline) Mode() string { return config.HandoffInline }

func (d *Inline) Dispatch(ctx context.Context, job pipeline.Job) error {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if _, err := d.runner.Run(runCtx, job); err != nil {
			d.logger.WarnContext(runCtx, "inline run failed", "run_id", job.ID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every dispatched job has finished or ctx is done.
func (d *Inline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
