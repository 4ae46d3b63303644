package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bellgas/internal/admin"
	"bellgas/internal/auth/middleware"
	id "bellgas/pkg/domain"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/httputil"
	request "bellgas/pkg/platform/middleware/request"
)

type Service interface {
	Dashboard(ctx context.Context, viewer string) (*admin.DashboardResponse, error)
	ListUsers(ctx context.Context) (*admin.UsersListResponse, error)
	RecentEvents(ctx context.Context, limit int) (*admin.AuditListResponse, error)
}

// Handler serves the admin pages. Browsers without a session are sent to
// the login page rather than answered with JSON.
type Handler struct {
	logger *slog.Logger
	admin  Service
	guard  *middleware.Authenticator
}

func New(svc Service, guard *middleware.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, admin: svc, guard: guard}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.guard.RequireAuth(middleware.ModeRedirect))
		r.Use(h.guard.RequireRole(middleware.ModeRedirect, id.RoleAdmin))
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/users", h.handleListUsers)
		r.Get("/audit/recent", h.handleRecentEvents)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.PrincipalFromContext(ctx)

	resp, err := h.admin.Dashboard(ctx, principal.Email)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build admin dashboard",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.admin.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer"))
			return
		}
		limit = parsed
	}

	resp, err := h.admin.RecentEvents(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list audit events",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
