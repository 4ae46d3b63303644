package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bellgas/internal/shipping/metrics"
)

// Service wraps the pure calculator with metrics and tracing for callers
// that sit on a request path.
type Service struct {
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{tracer: otel.Tracer("bellgas/shipping")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices a parcel for postcode. Malformed input fails with a
// CodeInvalidInput error; there is no retry.
func (s *Service) Quote(ctx context.Context, postcode string, totalWeightKg decimal.Decimal) (*ShippingQuote, error) {
	start := time.Now()
	_, span := s.tracer.Start(ctx, "shipping.Quote",
		trace.WithAttributes(attribute.String("postcode", postcode)),
	)
	defer span.End()

	quote, err := Quote(postcode, totalWeightKg)
	if s.metrics != nil {
		s.metrics.ObserveQuote(start)
	}
	if err != nil {
		if s.metrics != nil && errors.Is(err, ErrInvalidPostcode) {
			s.metrics.IncrementInvalidPostcode()
		}
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("zone", quote.Zone.String()))
	if s.metrics != nil {
		s.metrics.IncrementQuote(quote.Zone.String())
	}
	return quote, nil
}
