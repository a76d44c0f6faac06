package handler

import (
	"net/http"
	"strconv"
	"time"

	"contractflow/internal/providers"
	dErrors "contractflow/pkg/domain-errors"
	"contractflow/pkg/platform/httputil"
)

type healthResponse struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	Version string    `json:"version"`
	Build   string    `json:"build"`
	Time    time.Time `json:"time"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: h.cfg.ServiceName,
		Version: h.cfg.Version,
		Build:   h.cfg.Build,
		Time:    h.now().UTC(),
	})
}

type configResponse struct {
	Service     string                 `json:"service"`
	Version     string                 `json:"version"`
	HandoffMode string                 `json:"handoff_mode"`
	Providers   []providers.Descriptor `json:"providers"`
	Features    map[string]bool        `json:"features"`
}

// handleDebugConfig shows which integrations are configured, with credentials masked.
func (h *Handler) handleDebugConfig(w http.ResponseWriter, r *http.Request) {
	resp := configResponse{
		Service:   h.cfg.ServiceName,
		Version:   h.cfg.Version,
		Providers: []providers.Descriptor{},
		Features:  h.cfg.Features,
	}
	if h.deps.Dispatcher != nil {
		resp.HandoffMode = h.deps.Dispatcher.Mode()
	}
	if h.deps.Providers != nil {
		resp.Providers = h.deps.Providers.Describe()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleDebugTracker makes one read-only call to the task tracker.
func (h *Handler) handleDebugTracker(w http.ResponseWriter, r *http.Request) {
	if h.deps.Tracker == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "task tracker is not configured"))
		return
	}
	list, err := h.deps.Tracker.List(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "tracker probe failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUpstream, "tracker request failed: "+err.Error()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "list": list})
}

// handleDebugRuns lists recent ledger entries; ?limit= caps the count.
func (h *Handler) handleDebugRuns(w http.ResponseWriter, r *http.Request) {
	if h.deps.Runs == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "run ledger is not configured"))
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := h.deps.Runs.Recent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list runs", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not read run ledger"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
