package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuthFailures    prometheus.Counter
	AuthLockouts    prometheus.Counter
	BlockedAttempts prometheus.Counter
}

// New registers the lockout metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bellgas_ratelimit_auth_failures_recorded_total",
			Help: "Total number of failed logins recorded for lockout",
		}),
		AuthLockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bellgas_ratelimit_auth_lockouts_total",
			Help: "Total number of login lockouts applied",
		}),
		BlockedAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bellgas_ratelimit_auth_blocked_attempts_total",
			Help: "Total number of login attempts refused while locked",
		}),
	}
}

func (m *Metrics) IncrementAuthFailures() {
	m.AuthFailures.Inc()
}

func (m *Metrics) IncrementAuthLockouts() {
	m.AuthLockouts.Inc()
}

func (m *Metrics) IncrementBlockedAttempts() {
	m.BlockedAttempts.Inc()
}
