// Package requestcontext carries request-scoped values between the HTTP
// middleware that sets them and the services that read them, without the
// services importing net/http.
package requestcontext

import (
	"context"
	"time"

	"bellgas/pkg/domain"
)

type key int

const (
	keyUserID key = iota
	keyRole
	keySessionID
	keyClientIP
	keyUserAgent
	keyRequestID
	keyRequestTime
)

func value[T any](ctx context.Context, k key) T {
	v, _ := ctx.Value(k).(T)
	return v
}

// UserID is the authenticated account, or the nil id for anonymous callers.
func UserID(ctx context.Context) domain.UserID {
	return value[domain.UserID](ctx, keyUserID)
}

func WithUserID(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func Role(ctx context.Context) domain.Role {
	return value[domain.Role](ctx, keyRole)
}

func WithRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, keyRole, role)
}

// SessionID is the browser session cookie value the caller was resolved from.
func SessionID(ctx context.Context) string {
	return value[string](ctx, keySessionID)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, keySessionID, sessionID)
}

func ClientIP(ctx context.Context) string {
	return value[string](ctx, keyClientIP)
}

func UserAgent(ctx context.Context) string {
	return value[string](ctx, keyUserAgent)
}

// WithClientMetadata records the caller's address and User-Agent. Service
// tests use it in place of the metadata middleware.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, clientIP)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

func RequestID(ctx context.Context) string {
	return value[string](ctx, keyRequestID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// Now is the time pinned to the request, so every store touched while
// serving it sees the same instant. Outside a request it is the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(keyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyRequestTime, t)
}
