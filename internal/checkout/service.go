// Package checkout computes order totals: line items priced from the
// catalog plus a shipping quote for their combined weight.
package checkout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bellgas/internal/shipping"
	dErrors "bellgas/pkg/domain-errors"
	"bellgas/pkg/platform/sentinel"
	"bellgas/pkg/requestcontext"
)

const maxQuantityPerLine = 20

// Catalog looks up products by SKU.
type Catalog interface {
	Product(ctx context.Context, sku string) (*Product, error)
}

// ShippingQuoter prices a parcel.
type ShippingQuoter interface {
	Quote(ctx context.Context, postcode string, totalWeightKg decimal.Decimal) (*shipping.ShippingQuote, error)
}

type LineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type QuoteRequest struct {
	Postcode string     `json:"postcode"`
	Items    []LineItem `json:"items"`
}

type QuotedLine struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	WeightKg  decimal.Decimal
}

// OrderQuote holds exact amounts; Total is always Subtotal plus shipping.
type OrderQuote struct {
	Lines         []QuotedLine
	Subtotal      decimal.Decimal
	TotalWeightKg decimal.Decimal
	Shipping      *shipping.ShippingQuote
	Total         decimal.Decimal
}

type Service struct {
	catalog  Catalog
	shipping ShippingQuoter
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(catalog Catalog, quoter ShippingQuoter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:  catalog,
		shipping: quoter,
		logger:   logger,
		tracer:   otel.Tracer("bellgas/checkout"),
	}
}

// Quote prices req. Repeated SKUs are merged into one line in first-seen
// order.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*OrderQuote, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Quote",
		trace.WithAttributes(attribute.Int("items", len(req.Items))),
	)
	defer span.End()

	if len(req.Items) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one item is required")
	}

	quantities := make(map[string]int, len(req.Items))
	order := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 || item.Quantity > maxQuantityPerLine {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "quantity must be between 1 and 20")
		}
		product, err := s.catalog.Product(ctx, item.SKU)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown product "+item.SKU)
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
		}
		if _, seen := quantities[product.SKU]; !seen {
			order = append(order, product.SKU)
		}
		quantities[product.SKU] += item.Quantity
		if quantities[product.SKU] > maxQuantityPerLine {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "quantity must be between 1 and 20")
		}
	}

	quote := &OrderQuote{Subtotal: decimal.Zero, TotalWeightKg: decimal.Zero}
	for _, sku := range order {
		product, err := s.catalog.Product(ctx, sku)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
		}
		qty := decimal.NewFromInt(int64(quantities[sku]))
		line := QuotedLine{
			SKU:       product.SKU,
			Name:      product.Name,
			Quantity:  quantities[sku],
			UnitPrice: product.UnitPrice,
			LineTotal: product.UnitPrice.Mul(qty),
			WeightKg:  product.ShippingWeightKg.Mul(qty),
		}
		quote.Lines = append(quote.Lines, line)
		quote.Subtotal = quote.Subtotal.Add(line.LineTotal)
		quote.TotalWeightKg = quote.TotalWeightKg.Add(line.WeightKg)
	}

	shippingQuote, err := s.shipping.Quote(ctx, req.Postcode, quote.TotalWeightKg)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	quote.Shipping = shippingQuote
	quote.Total = quote.Subtotal.Add(shippingQuote.TotalCost)

	span.SetAttributes(attribute.String("zone", shippingQuote.Zone.String()))
	s.logger.DebugContext(ctx, "checkout quoted",
		"zone", shippingQuote.Zone.String(),
		"total", quote.Total.StringFixed(2),
		"request_id", requestcontext.RequestID(ctx),
	)
	return quote, nil
}
