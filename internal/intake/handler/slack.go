package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"contractflow/internal/contract"
	"contractflow/internal/pipeline"
	"contractflow/internal/providers/chat"
	dErrors "contractflow/pkg/domain-errors"
	"contractflow/pkg/platform/httputil"
	"contractflow/pkg/requestcontext"
)

const maxSlackBody = 1 << 20

// ephemeral is a slash-command reply only the invoking user sees.
type ephemeral struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// viewErrors keeps the modal open with per-block messages.
type viewErrors struct {
	ResponseAction string            `json:"response_action"`
	Errors         map[string]string `json:"errors"`
}

const usage = "Use `/contract` to open the contract form. Fill in the client, amount and scope, then submit; the result is posted to this channel."

// verifySlack checks the request signature when a signing secret is configured
// and leaves the body readable for the handler.
func (h *Handler) verifySlack(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.SlackSigningSecret == "" {
			next.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxSlackBody))
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read request body"))
			return
		}
		err = chat.VerifySignature(h.cfg.SlackSigningSecret,
			r.Header.Get("X-Slack-Request-Timestamp"),
			r.Header.Get("X-Slack-Signature"),
			body, h.now())
		if err != nil {
			ctx := r.Context()
			h.logger.WarnContext(ctx, "rejected slack request",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid slack signature"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// handleSlashCommand opens the contract modal. trigger_id expires after three
// seconds, so views.open is called before responding.
func (h *Handler) handleSlashCommand(w http.ResponseWriter, r *http.Request) {
	ctx := requestcontext.WithSource(r.Context(), pipeline.SourceSlack)
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	text := strings.ToLower(strings.TrimSpace(r.PostForm.Get("text")))
	if text == "help" {
		httputil.WriteJSON(w, http.StatusOK, ephemeral{ResponseType: "ephemeral", Text: usage})
		return
	}
	triggerID := r.PostForm.Get("trigger_id")
	if triggerID == "" {
		httputil.WriteJSON(w, http.StatusOK, ephemeral{ResponseType: "ephemeral", Text: "Missing trigger_id; run the command again from Slack."})
		return
	}
	if h.deps.Modals == nil {
		httputil.WriteJSON(w, http.StatusOK, ephemeral{ResponseType: "ephemeral", Text: "Slack is not configured on this server."})
		return
	}

	if err := h.deps.Modals.OpenView(ctx, triggerID, chat.ContractModal(r.PostForm.Get("channel_id"))); err != nil {
		h.logger.ErrorContext(ctx, "failed to open contract modal",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", r.PostForm.Get("user_id"),
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusOK, ephemeral{ResponseType: "ephemeral", Text: "Could not open the contract form: " + err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleInteraction validates a modal submission inline and hands the job off,
// acknowledging Slack before the pipeline runs.
func (h *Handler) handleInteraction(w http.ResponseWriter, r *http.Request) {
	ctx := requestcontext.WithSource(r.Context(), pipeline.SourceSlack)
	requestID := requestcontext.RequestID(ctx)
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	payload, err := chat.ParseInteraction(r.PostForm.Get("payload"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid interaction payload"))
		return
	}
	if payload.Type != "view_submission" || payload.View.CallbackID != chat.ContractCallbackID {
		w.WriteHeader(http.StatusOK)
		return
	}

	req, err := h.deps.Pipeline.Validate(ctx, payload.View.Submission())
	if err != nil {
		h.deps.Metrics.IncrementSubmission(pipeline.SourceSlack, "skipped")
		var verr *contract.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteJSON(w, http.StatusOK, viewErrors{ResponseAction: "errors", Errors: chat.ValidationErrors(verr)})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, viewErrors{ResponseAction: "errors", Errors: map[string]string{
			chat.BlockClientCompany: err.Error(),
		}})
		return
	}

	if !h.claim(ctx, pipeline.SourceSlack, payload.View.ID) {
		h.deps.Metrics.IncrementSubmission(pipeline.SourceSlack, "duplicate")
		w.WriteHeader(http.StatusOK)
		return
	}

	origin := pipeline.Origin{
		Source:    pipeline.SourceSlack,
		RequestID: requestID,
		ChannelID: payload.View.PrivateMetadata,
		UserID:    payload.User.ID,
	}
	job := pipeline.NewJob(req, origin, requestcontext.Now(ctx))
	if err := h.deps.Dispatcher.Dispatch(ctx, job); err != nil {
		h.logger.ErrorContext(ctx, "hand-off failed",
			"request_id", requestID,
			"run_id", job.ID,
			"mode", h.deps.Dispatcher.Mode(),
			"error", err,
		)
		h.deps.Metrics.IncrementDispatch(h.deps.Dispatcher.Mode(), "failed")
		h.release(ctx, pipeline.SourceSlack, payload.View.ID)
		httputil.WriteJSON(w, http.StatusOK, viewErrors{ResponseAction: "errors", Errors: map[string]string{
			chat.BlockClientCompany: "Could not start processing, please submit again.",
		}})
		return
	}
	h.deps.Metrics.IncrementDispatch(h.deps.Dispatcher.Mode(), "accepted")
	h.deps.Metrics.IncrementSubmission(pipeline.SourceSlack, "accepted")
	h.logger.InfoContext(ctx, "slack submission accepted",
		"request_id", requestID,
		"run_id", job.ID,
		"company", req.ClientCompany,
		"mode", h.deps.Dispatcher.Mode(),
	)
	w.WriteHeader(http.StatusOK)
}
