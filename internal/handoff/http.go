package handoff

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	"contractflow/internal/pipeline"
	"contractflow/internal/platform/config"
)

// HTTP posts each job as a CloudEvent to a processing endpoint and does not
// wait for the pipeline to finish there.
type HTTP struct {
	url     string
	tokens  *Tokens
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
	sent    chan struct{}
}

func NewHTTP(url string, tokens *Tokens, timeout time.Duration, logger *slog.Logger) *HTTP {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{
		url:     url,
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

func (d *HTTP) Mode() string { return config.HandoffHTTP }

// Dispatch returns once the request is built; the POST itself runs detached.
func (d *HTTP) Dispatch(ctx context.Context, job pipeline.Job) error {
	req, err := d.request(ctx, job)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	req = req.WithContext(sendCtx)
	go func() {
		defer cancel()
		if d.sent != nil {
			defer func() { d.sent <- struct{}{} }()
		}
		resp, err := d.client.Do(req)
		if err != nil {
			d.logger.ErrorContext(sendCtx, "hand-off request failed", "run_id", job.ID, "error", err)
			return
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= http.StatusMultipleChoices {
			d.logger.ErrorContext(sendCtx, "hand-off rejected", "run_id", job.ID, "status", resp.StatusCode)
			return
		}
		d.logger.InfoContext(sendCtx, "hand-off delivered", "run_id", job.ID, "status", resp.StatusCode)
	}()
	return nil
}

func (d *HTTP) request(ctx context.Context, job pipeline.Job) (*http.Request, error) {
	ev, err := NewEvent(job)
	if err != nil {
		return nil, err
	}
	req, err := cehttp.NewHTTPRequestFromEvent(ctx, d.url, ev)
	if err != nil {
		return nil, fmt.Errorf("build hand-off request: %w", err)
	}
	token, err := d.tokens.Sign(job.ID)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// JobFromRequest authenticates and decodes a request produced by HTTP.Dispatch.
func JobFromRequest(r *http.Request, tokens *Tokens) (pipeline.Job, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return pipeline.Job{}, fmt.Errorf("%w: missing bearer token", ErrInvalidToken)
	}
	subject, err := tokens.Verify(raw)
	if err != nil {
		return pipeline.Job{}, err
	}
	ev, err := cehttp.NewEventFromHTTPRequest(r)
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("read event: %w", err)
	}
	job, err := JobFromEvent(*ev)
	if err != nil {
		return pipeline.Job{}, err
	}
	if job.ID != subject {
		return pipeline.Job{}, fmt.Errorf("%w: token subject does not match job", ErrInvalidToken)
	}
	return job, nil
}
