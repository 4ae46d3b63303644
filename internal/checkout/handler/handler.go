package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bellgas/internal/auth/middleware"
	"bellgas/internal/checkout"
	shippinghandler "bellgas/internal/shipping/handler"
	id "bellgas/pkg/domain"
	"bellgas/pkg/platform/httputil"
	request "bellgas/pkg/platform/middleware/request"
)

type Service interface {
	Quote(ctx context.Context, req checkout.QuoteRequest) (*checkout.OrderQuote, error)
}

// Handler serves order quotes to signed-in customers and admins.
type Handler struct {
	logger   *slog.Logger
	checkout Service
	guard    *middleware.Authenticator
}

func New(svc Service, guard *middleware.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, checkout: svc, guard: guard}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuth(middleware.ModeJSON))
		r.Use(h.guard.RequireRole(middleware.ModeJSON, id.RoleCustomer, id.RoleAdmin))
		r.Post("/api/checkout/quote", h.handleQuote)
	})
}

type LineResponse struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type QuoteResponse struct {
	Lines         []LineResponse                `json:"lines"`
	Subtotal      string                        `json:"subtotal"`
	TotalWeightKg string                        `json:"total_weight_kg"`
	Shipping      shippinghandler.QuoteResponse `json:"shipping"`
	Total         string                        `json:"total"`
}

func NewQuoteResponse(q *checkout.OrderQuote) QuoteResponse {
	lines := make([]LineResponse, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, LineResponse{
			SKU:       l.SKU,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	return QuoteResponse{
		Lines:         lines,
		Subtotal:      q.Subtotal.StringFixed(2),
		TotalWeightKg: q.TotalWeightKg.String(),
		Shipping:      shippinghandler.NewQuoteResponse(q.Shipping),
		Total:         q.Total.StringFixed(2),
	}
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, err := httputil.DecodeJSON[checkout.QuoteRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to decode checkout quote request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	quote, err := h.checkout.Quote(ctx, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "checkout quote rejected",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewQuoteResponse(quote))
}
