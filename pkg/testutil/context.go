package testutil

import (
	"net/http"
	"time"

	id "bellgas/pkg/domain"
	"bellgas/pkg/requestcontext"
)

// WithClientMetadata sets the client IP and user agent the metadata
// middleware would have recorded.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithUserID adds a user ID to the request context.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}
