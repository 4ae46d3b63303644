// Package admin guards operator endpoints such as /metrics.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/httputil"
	request "bellgas/pkg/platform/middleware/request"
)

const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken admits requests that present the operator token either
// in X-Admin-Token or as a Bearer credential, the form Prometheus scrape
// configs send. An empty expected token disables the guard.
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		want := []byte(expected)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := presentedToken(r)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), want) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "operator endpoint refused",
					"request_id", request.GetRequestID(ctx),
					"path", r.URL.Path,
					"token_present", presented != "",
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedToken(r *http.Request) string {
	if v := r.Header.Get(HeaderAdminToken); v != "" {
		return v
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
