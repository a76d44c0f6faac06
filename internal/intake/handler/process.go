package handler

import (
	"errors"
	"net/http"

	"contractflow/internal/handoff"
	"contractflow/internal/pipeline"
	dErrors "contractflow/pkg/domain-errors"
	"contractflow/pkg/platform/httputil"
	"contractflow/pkg/platform/sentinel"
	"contractflow/pkg/requestcontext"
)

type processResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// handleProcess receives a job from the HTTP hand-off and runs it before answering.
func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	if h.deps.Tokens == nil || h.deps.Processor == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "hand-off receiver is not enabled"))
		return
	}
	ctx := requestcontext.WithSource(r.Context(), pipeline.SourceHandoff)

	job, err := handoff.JobFromRequest(r, h.deps.Tokens)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected hand-off",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if errors.Is(err, handoff.ErrInvalidToken) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid hand-off token"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid hand-off event"))
		return
	}

	err = h.deps.Processor.Handle(ctx, job)
	if errors.Is(err, sentinel.ErrDuplicate) {
		httputil.WriteJSON(w, http.StatusOK, processResponse{RunID: job.ID, Status: "duplicate"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "hand-off processing failed", "run_id", job.ID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not process job"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, processResponse{RunID: job.ID, Status: "processed"})
}
