// Package middleware gates HTTP routes on the identity resolver chain.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"bellgas/internal/audit"
	"bellgas/internal/auth/models"
	"bellgas/internal/auth/resolver"
	id "bellgas/pkg/domain"
	"bellgas/pkg/platform/httputil"
	request "bellgas/pkg/platform/middleware/request"
	"bellgas/pkg/requestcontext"
)

// Mode selects how an unauthenticated request is answered.
type Mode int

const (
	// ModeJSON answers 401 with the JSON error envelope.
	ModeJSON Mode = iota
	// ModeRedirect sends the browser to the login page.
	ModeRedirect
	// ModeNegotiate uses JSON for API-style requests and redirects otherwise.
	ModeNegotiate
)

// Resolver is the identity chain consulted for every protected request.
type Resolver interface {
	Resolve(ctx context.Context, rc resolver.RequestContext) (*models.Principal, error)
	Promote(ctx context.Context, sessionID string, principal *models.Principal) error
}

// AuditPublisher records denied access.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type contextKeyPrincipal struct{}

// PrincipalFromContext returns the principal stored by RequireAuth.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal{}).(*models.Principal)
	return p, ok && p != nil
}

// WithPrincipal stores p and its identifiers on ctx.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	ctx = context.WithValue(ctx, contextKeyPrincipal{}, p)
	ctx = requestcontext.WithUserID(ctx, p.ID)
	return requestcontext.WithRole(ctx, p.Role)
}

// ExtractBearerToken returns the token from an "Authorization: Bearer" header.
func ExtractBearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticator builds route guards around a Resolver.
type Authenticator struct {
	resolver   Resolver
	logger     *slog.Logger
	audit      AuditPublisher
	cookieName string
	loginURL   string
	promote    bool
}

type Option func(*Authenticator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(a *Authenticator) {
		a.audit = p
	}
}

func WithCookieName(name string) Option {
	return func(a *Authenticator) {
		if name != "" {
			a.cookieName = name
		}
	}
}

func WithLoginURL(loginURL string) Option {
	return func(a *Authenticator) {
		if loginURL != "" {
			a.loginURL = loginURL
		}
	}
}

// WithPromotion writes identities resolved from fallback sources back into
// the primary session.
func WithPromotion() Option {
	return func(a *Authenticator) {
		a.promote = true
	}
}

func New(r Resolver, opts ...Option) *Authenticator {
	a := &Authenticator{
		resolver:   r,
		logger:     slog.Default(),
		cookieName: "bellgas_session",
		loginURL:   "/login",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CookieName is the session cookie read by the guards.
func (a *Authenticator) CookieName() string {
	return a.cookieName
}

// RequestContextFrom collects the identity evidence on r.
func (a *Authenticator) RequestContextFrom(r *http.Request) resolver.RequestContext {
	var rc resolver.RequestContext
	if c, err := r.Cookie(a.cookieName); err == nil {
		rc.SessionID = c.Value
	}
	if token, ok := ExtractBearerToken(r.Header.Get("Authorization")); ok {
		rc.BearerToken = token
	}
	return rc
}

// RequireAuth resolves the caller and stores the principal on the request
// context, or answers per mode.
func (a *Authenticator) RequireAuth(mode Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rc := a.RequestContextFrom(r)
			principal, err := a.resolver.Resolve(ctx, rc)
			if err != nil {
				a.logger.WarnContext(ctx, "unauthorized access",
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				a.unauthenticated(w, r, mode)
				return
			}

			if a.promote && rc.SessionID != "" && principal.Source != models.SourcePrimarySession {
				switch err := a.resolver.Promote(ctx, rc.SessionID, principal); {
				case errors.Is(err, resolver.ErrUnknownSession):
					a.logger.InfoContext(ctx, "promotion skipped for unknown session",
						"user_id", principal.ID.String(),
						"request_id", request.GetRequestID(ctx),
					)
				case err != nil:
					a.logger.WarnContext(ctx, "failed to promote identity into session",
						"error", err,
						"request_id", request.GetRequestID(ctx),
					)
				default:
					a.emit(ctx, audit.ActionPromoted, principal, "from "+principal.Source.String())
				}
			}

			ctx = WithPrincipal(ctx, principal)
			if rc.SessionID != "" {
				ctx = requestcontext.WithSessionID(ctx, rc.SessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after RequireAuth. Callers outside roles get 403.
func (a *Authenticator) RequireRole(mode Mode, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, _ := PrincipalFromContext(ctx)
			if _, err := resolver.RequireRole(principal, roles...); err != nil {
				if principal == nil {
					a.unauthenticated(w, r, mode)
					return
				}
				a.logger.WarnContext(ctx, "access denied",
					"user_id", principal.ID.String(),
					"role", principal.Role.String(),
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				a.emit(ctx, audit.ActionAccessDenied, principal, "role "+principal.Role.String()+" on "+r.URL.Path)
				if a.wantsJSON(r, mode) {
					httputil.WriteError(w, err)
					return
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authenticator) emit(ctx context.Context, action audit.Action, p *models.Principal, reason string) {
	if a.audit == nil {
		return
	}
	_ = a.audit.Emit(ctx, audit.Event{
		Action: action,
		UserID: p.ID,
		Email:  p.Email,
		Source: p.Source.String(),
		Reason: reason,
	})
}

func (a *Authenticator) unauthenticated(w http.ResponseWriter, r *http.Request, mode Mode) {
	if a.wantsJSON(r, mode) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="bellgas"`)
		httputil.WriteError(w, resolver.ErrUnauthenticated)
		return
	}
	target := a.loginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
	if strings.Contains(a.loginURL, "?") {
		target = a.loginURL + "&next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (a *Authenticator) wantsJSON(r *http.Request, mode Mode) bool {
	switch mode {
	case ModeJSON:
		return true
	case ModeRedirect:
		return false
	case ModeNegotiate:
		return strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") ||
			strings.Contains(r.Header.Get("Accept"), "application/json")
	default:
		return true
	}
}
