package handler

import (
	"context"
	"errors"
	"net/http"

	"contractflow/internal/contract"
	"contractflow/internal/pipeline"
	"contractflow/pkg/platform/httputil"
	"contractflow/pkg/requestcontext"
)

// IdempotencyHeader de-duplicates webhook retries.
const IdempotencyHeader = "Idempotency-Key"

// SkippedResponse is returned with 200 when a submission is not processed.
type SkippedResponse struct {
	Skipped       bool     `json:"skipped"`
	Duplicate     bool     `json:"duplicate,omitempty"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// handleWebhook runs the pipeline and answers with its result. A caller that
// disconnects mid-run does not cancel the run.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:            "method_not_allowed",
			ErrorDescription: "use POST with a JSON body",
		})
		return
	}
	ctx := requestcontext.WithSource(r.Context(), pipeline.SourceWebhook)
	requestID := requestcontext.RequestID(ctx)

	sub, err := httputil.DecodeJSON[contract.Submission](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid webhook body", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	req, err := h.deps.Pipeline.Validate(ctx, sub)
	if err != nil {
		h.deps.Metrics.IncrementSubmission(pipeline.SourceWebhook, "skipped")
		httputil.WriteJSON(w, http.StatusOK, skipped(err))
		return
	}

	if !h.claim(ctx, pipeline.SourceWebhook, r.Header.Get(IdempotencyHeader)) {
		h.deps.Metrics.IncrementSubmission(pipeline.SourceWebhook, "duplicate")
		httputil.WriteJSON(w, http.StatusOK, SkippedResponse{
			Skipped:   true,
			Duplicate: true,
			Message:   "duplicate submission for this Idempotency-Key",
		})
		return
	}

	job := pipeline.NewJob(req, pipeline.Origin{Source: pipeline.SourceWebhook, RequestID: requestID}, requestcontext.Now(ctx))
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.cfg.RunTimeout)
	defer cancel()
	res, err := h.deps.Pipeline.Run(runCtx, job)
	var stageErr *pipeline.StageError
	switch {
	case errors.As(err, &stageErr):
		h.deps.Metrics.IncrementSubmission(pipeline.SourceWebhook, "failed")
		httputil.WriteJSON(w, http.StatusBadGateway, res)
	case err != nil:
		h.logger.ErrorContext(ctx, "pipeline run failed", "request_id", requestID, "run_id", job.ID, "error", err)
		h.deps.Metrics.IncrementSubmission(pipeline.SourceWebhook, "failed")
		httputil.WriteError(w, err)
	default:
		h.deps.Metrics.IncrementSubmission(pipeline.SourceWebhook, "completed")
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

func skipped(err error) SkippedResponse {
	resp := SkippedResponse{Skipped: true, Message: err.Error()}
	var verr *contract.ValidationError
	if errors.As(err, &verr) {
		resp.Message = verr.Error()
		resp.MissingFields = verr.Fields()
	}
	return resp
}
