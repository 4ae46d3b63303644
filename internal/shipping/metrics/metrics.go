package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for shipping quotes.
type Metrics struct {
	QuotesByZone     *prometheus.CounterVec
	InvalidPostcodes prometheus.Counter
	QuoteDuration    prometheus.Histogram
}

// New registers shipping metrics with reg, or the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		QuotesByZone: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bellgas_shipping_quotes_total",
			Help: "Shipping quotes issued, by delivery zone",
		}, []string{"zone"}),
		InvalidPostcodes: factory.NewCounter(prometheus.CounterOpts{
			Name: "bellgas_shipping_invalid_postcodes_total",
			Help: "Quote requests rejected for a malformed postcode",
		}),
		QuoteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bellgas_shipping_quote_duration_seconds",
			Help:    "Duration of quote computation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
	}
}

func (m *Metrics) IncrementQuote(zone string) {
	m.QuotesByZone.WithLabelValues(zone).Inc()
}

func (m *Metrics) IncrementInvalidPostcode() {
	m.InvalidPostcodes.Inc()
}

// ObserveQuote records the duration of a quote. Call with time.Now() at the
// start of the operation.
func (m *Metrics) ObserveQuote(start time.Time) {
	m.QuoteDuration.Observe(time.Since(start).Seconds())
}
