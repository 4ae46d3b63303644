package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bellgas/internal/admin"
	"bellgas/internal/admin/adapters"
	adminhandler "bellgas/internal/admin/handler"
	"bellgas/internal/audit"
	authhandler "bellgas/internal/auth/handler"
	authmetrics "bellgas/internal/auth/metrics"
	authmw "bellgas/internal/auth/middleware"
	"bellgas/internal/auth/resolver"
	authservice "bellgas/internal/auth/service"
	"bellgas/internal/checkout"
	checkouthandler "bellgas/internal/checkout/handler"
	jwttoken "bellgas/internal/jwt_token"
	"bellgas/internal/platform/config"
	platformmetrics "bellgas/internal/platform/metrics"
	ratelimitmetrics "bellgas/internal/ratelimit/metrics"
	"bellgas/internal/ratelimit/service/authlockout"
	"bellgas/internal/shipping"
	shippinghandler "bellgas/internal/shipping/handler"
	shippingmetrics "bellgas/internal/shipping/metrics"
	adminmw "bellgas/pkg/platform/middleware/admin"
	"bellgas/pkg/platform/middleware/metadata"
	request "bellgas/pkg/platform/middleware/request"
	"bellgas/pkg/platform/middleware/requesttime"
)

const auditBuffer = 1024

// app is the assembled HTTP surface plus the background audit publisher.
type app struct {
	router    http.Handler
	publisher *audit.Publisher
}

// newApp builds every service over st and mounts their handlers.
func newApp(cfg config.Server, st *stores, log *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	authMetrics := authmetrics.New(reg)

	publisher := audit.NewPublisher(st.auditSink(), audit.WithBuffer(auditBuffer), audit.WithLogger(log))
	tokens := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience),
		st.revocations,
		cfg.Auth.AccessTokenTTL,
	)

	identity, err := resolver.New(st.sessions, tokens, st.users,
		resolver.WithLogger(log),
		resolver.WithMetrics(authMetrics),
	)
	if err != nil {
		return nil, err
	}
	guard := authmw.New(identity,
		authmw.WithLogger(log),
		authmw.WithAuditPublisher(publisher),
		authmw.WithCookieName(cfg.Auth.CookieName),
		authmw.WithLoginURL(cfg.Auth.LoginURL),
		authmw.WithPromotion(),
	)
	lockout, err := authlockout.New(st.lockouts,
		authlockout.WithLogger(log),
		authlockout.WithMetrics(ratelimitmetrics.New(reg)),
	)
	if err != nil {
		return nil, err
	}
	authSvc, err := authservice.New(st.users, st.sessions, tokens,
		authservice.WithLogger(log),
		authservice.WithMetrics(authMetrics),
		authservice.WithAuditPublisher(publisher),
		authservice.WithLockout(lockout),
	)
	if err != nil {
		return nil, err
	}

	shippingSvc := shipping.NewService(shipping.WithMetrics(shippingmetrics.New(reg)))
	checkoutSvc := checkout.NewService(checkout.NewInMemoryCatalog(checkout.DefaultProducts), shippingSvc, log)
	adminSvc := admin.NewService(adapters.AuthUsers(st.users), st.audit)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Recovery(log))
	r.Use(platformmetrics.New(reg).LatencyMiddleware)

	r.Get("/healthz", healthHandler(st))
	r.With(adminmw.RequireAdminToken(cfg.AdminToken, log)).
		Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	shippinghandler.New(shippingSvc, log).Register(r)
	authhandler.New(authSvc, guard, authhandler.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
		TTL:    cfg.Auth.SessionTTL,
	}, log).Register(r)
	checkouthandler.New(checkoutSvc, guard, log).Register(r)
	adminhandler.New(adminSvc, guard, log).Register(r)

	return &app{router: r, publisher: publisher}, nil
}

func healthHandler(st *stores) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if st.redis != nil {
			if err := st.redis.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if st.db != nil {
			if err := st.db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if st.stream != nil {
			if err := st.stream.Health(ctx); err != nil {
				http.Error(w, "kafka unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
