package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	dErrors "contractflow/pkg/domain-errors"
	"contractflow/pkg/platform/httputil"
	"contractflow/pkg/requestcontext"
)

// APIKeyHeader is accepted alongside "Authorization: Bearer <key>".
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests that do not present key. An empty key disables the check.
func RequireAPIKey(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)
			if presented == "" {
				presented, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized request - invalid api key",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
					"key_present", presented != "",
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or missing API key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
