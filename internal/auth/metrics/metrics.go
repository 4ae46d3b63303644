package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identity resolution and login.
type Metrics struct {
	ResolutionsBySource *prometheus.CounterVec
	SourceMisses        *prometheus.CounterVec
	Unauthenticated     prometheus.Counter
	Promotions          prometheus.Counter
	ResolveDuration     prometheus.Histogram
	LoginAttempts       *prometheus.CounterVec
}

// New registers auth metrics with reg, or the default registerer when reg
// is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ResolutionsBySource: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bellgas_auth_resolutions_total",
			Help: "Requests resolved to a principal, by identity source",
		}, []string{"source"}),
		SourceMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bellgas_auth_source_misses_total",
			Help: "Identity sources that yielded nothing, by source",
		}, []string{"source"}),
		Unauthenticated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bellgas_auth_unauthenticated_total",
			Help: "Requests where every identity source was exhausted",
		}),
		Promotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "bellgas_auth_promotions_total",
			Help: "Fallback identities written back into the primary session",
		}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bellgas_auth_resolve_duration_seconds",
			Help:    "Duration of identity resolution",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bellgas_auth_login_attempts_total",
			Help: "Password login attempts, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementResolved(source string) {
	m.ResolutionsBySource.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementSourceMiss(source string) {
	m.SourceMisses.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementUnauthenticated() {
	m.Unauthenticated.Inc()
}

func (m *Metrics) IncrementPromotion() {
	m.Promotions.Inc()
}

// IncrementLogin records a login outcome ("success", "invalid_credentials",
// "inactive").
func (m *Metrics) IncrementLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveResolve records the duration of a resolution. Call with time.Now()
// at the start of the operation.
func (m *Metrics) ObserveResolve(start time.Time) {
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}
