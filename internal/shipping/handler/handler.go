package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bellgas/internal/shipping"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/httputil"
	request "bellgas/pkg/platform/middleware/request"
)

// Service defines the interface for shipping quotes.
type Service interface {
	Quote(ctx context.Context, postcode string, totalWeightKg decimal.Decimal) (*shipping.ShippingQuote, error)
}

// Handler serves the public shipping endpoints.
type Handler struct {
	logger   *slog.Logger
	shipping Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, shipping: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/shipping/quote", h.handleQuote)
	r.Get("/api/shipping/postcodes/{postcode}", h.handlePostcode)
}

// QuoteResponse renders money with two decimal places.
type QuoteResponse struct {
	Postcode      string                  `json:"postcode"`
	Zone          string                  `json:"zone"`
	ShippingCost  string                  `json:"shipping_cost"`
	EstimatedDays shipping.DeliveryWindow `json:"estimated_delivery_days"`
}

type PostcodeResponse struct {
	Postcode      string                  `json:"postcode"`
	Zone          string                  `json:"zone"`
	Area          string                  `json:"area,omitempty"`
	EstimatedDays shipping.DeliveryWindow `json:"estimated_delivery_days"`
}

func NewQuoteResponse(q *shipping.ShippingQuote) QuoteResponse {
	return QuoteResponse{
		Postcode:      q.Postcode,
		Zone:          q.Zone.String(),
		ShippingCost:  q.TotalCost.StringFixed(2),
		EstimatedDays: q.Delivery,
	}
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	postcode := r.URL.Query().Get("postcode")
	weight := decimal.Zero
	if raw := r.URL.Query().Get("weight_kg"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid weight in quote request",
				"request_id", requestID,
				"weight_kg", raw,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "weight_kg must be a decimal number"))
			return
		}
		weight = parsed
	}

	quote, err := h.shipping.Quote(ctx, postcode, weight)
	if err != nil {
		h.logger.WarnContext(ctx, "shipping quote rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewQuoteResponse(quote))
}

func (h *Handler) handlePostcode(w http.ResponseWriter, r *http.Request) {
	postcode := chi.URLParam(r, "postcode")
	if !shipping.ValidatePostcode(postcode) {
		httputil.WriteError(w, shipping.ErrInvalidPostcode)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, PostcodeResponse{
		Postcode:      postcode,
		Zone:          shipping.ClassifyZone(postcode).String(),
		Area:          shipping.Area(postcode),
		EstimatedDays: shipping.EstimatedDeliveryDays(postcode),
	})
}
