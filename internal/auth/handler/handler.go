package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bellgas/internal/auth/middleware"
	"bellgas/internal/auth/models"
	"bellgas/internal/auth/service"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/httputil"
	request "bellgas/pkg/platform/middleware/request"
)

// Service is the login/logout surface.
type Service interface {
	Login(ctx context.Context, req service.LoginRequest, currentSessionID string) (*service.LoginResult, error)
	Logout(ctx context.Context, principal *models.Principal, sessionID, bearerToken string) error
}

// Handler serves /api/auth.
type Handler struct {
	auth   Service
	guard  *middleware.Authenticator
	cookie CookieConfig
	logger *slog.Logger
}

func New(svc Service, guard *middleware.Authenticator, cookie CookieConfig, logger *slog.Logger) *Handler {
	if cookie.Name == "" {
		cookie.Name = guard.CookieName()
	}
	return &Handler{auth: svc, guard: guard, cookie: cookie, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuth(middleware.ModeJSON))
		r.Post("/api/auth/logout", h.handleLogout)
		r.Get("/api/auth/me", h.handleMe)
	})
}

type UserResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Source string `json:"source"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

func NewUserResponse(p *models.Principal) UserResponse {
	return UserResponse{
		ID:     p.ID.String(),
		Email:  p.Email,
		Name:   p.Name,
		Role:   p.Role.String(),
		Source: p.Source.String(),
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, err := httputil.DecodeJSON[service.LoginRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	current := h.guard.RequestContextFrom(r).SessionID
	result, err := h.auth.Login(ctx, *req, current)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "login failed",
				"error", err,
				"request_id", requestID,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	setSessionCookie(w, h.cookie, result.SessionID)
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(result.ExpiresAt).Seconds()),
		User:        NewUserResponse(result.Principal),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.PrincipalFromContext(ctx)
	rc := h.guard.RequestContextFrom(r)

	if err := h.auth.Logout(ctx, principal, rc.SessionID, rc.BearerToken); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	clearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewUserResponse(principal))
}
