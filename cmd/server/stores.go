package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"bellgas/internal/audit"
	auditstore "bellgas/internal/audit/store"
	"bellgas/internal/audit/stream"
	"bellgas/internal/auth/models"
	"bellgas/internal/auth/store/revocation"
	"bellgas/internal/auth/store/session"
	userstore "bellgas/internal/auth/store/user"
	"bellgas/internal/platform/config"
	"bellgas/internal/platform/postgres"
	"bellgas/internal/platform/redis"
	"bellgas/internal/ratelimit/service/authlockout"
	lockoutstore "bellgas/internal/ratelimit/store/authlockout"
	id "bellgas/pkg/domain"
)

type sessionStore interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Put(ctx context.Context, sessionID string, values map[string]string) error
	Update(ctx context.Context, sessionID string, values map[string]string) error
	Forget(ctx context.Context, sessionID string, keys ...string) error
	Destroy(ctx context.Context, sessionID string) error
}

type userStore interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
}

type revocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// expirer is implemented by stores that hold expiring rows themselves
// rather than relying on backend TTLs.
type expirer interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// stores holds the selected backends. Redis backs sessions, revocation and
// lockout when configured; PostgreSQL backs users, audit and, without Redis,
// revocation and lockout. Anything unconfigured falls back to memory. Audit
// events are mirrored to Kafka when brokers are configured.
type stores struct {
	sessions    sessionStore
	users       userStore
	revocations revocationList
	lockouts    authlockout.Store
	audit       auditstore.Store
	expirers    []expirer

	redis  *redis.Client
	db     *sql.DB
	stream *stream.KafkaSink
}

func openStores(ctx context.Context, cfg config.Server, logger *slog.Logger) (*stores, error) {
	s := &stores{}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	s.redis = rc

	if cfg.Database.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.db = db
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := stream.NewKafka(ctx, cfg.Kafka)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		s.stream = sink
		if err := sink.EnsureTopic(ctx, int32(cfg.Kafka.Partitions), int16(cfg.Kafka.ReplicationFactor)); err != nil {
			s.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "mirroring audit events to kafka", "topic", cfg.Kafka.AuditTopic)
	}

	switch {
	case s.redis != nil:
		s.sessions = session.NewRedis(s.redis.Client, cfg.Auth.SessionTTL)
		s.revocations = revocation.NewRedisTRL(s.redis.Client)
		s.lockouts = lockoutstore.NewRedis(s.redis.Client)
		logger.InfoContext(ctx, "using redis for sessions, token revocation and login lockout")
	default:
		mem := session.NewInMemory(cfg.Auth.SessionTTL)
		s.sessions = mem
		s.expirers = append(s.expirers, mem)
		logger.InfoContext(ctx, "using in-memory session store")
	}

	if s.db != nil {
		s.users = userstore.NewPostgres(s.db)
		s.audit = auditstore.NewPostgres(s.db)
		if s.revocations == nil {
			pg := revocation.NewPostgresTRL(s.db)
			s.revocations = pg
			s.expirers = append(s.expirers, pg)
		}
		if s.lockouts == nil {
			pg := lockoutstore.NewPostgres(s.db)
			s.lockouts = pg
			s.expirers = append(s.expirers, pg)
		}
		logger.InfoContext(ctx, "using postgres for users and audit events")
	} else {
		users := userstore.New()
		if err := userstore.Seed(ctx, users, userstore.DevAccounts); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed development accounts: %w", err)
		}
		s.users = users
		s.audit = auditstore.NewInMemoryStore()
		logger.WarnContext(ctx, "no database configured; using in-memory users seeded with development accounts")
	}

	if s.revocations == nil {
		s.revocations = revocation.NewInMemoryTRL()
	}
	if s.lockouts == nil {
		mem := lockoutstore.New()
		s.lockouts = mem
		s.expirers = append(s.expirers, mem)
	}
	return s, nil
}

// auditSink is where the audit publisher writes: the audit store plus the
// Kafka mirror when one is configured.
func (s *stores) auditSink() audit.Appender {
	if s.stream == nil {
		return s.audit
	}
	return audit.Tee(s.audit, s.stream)
}

// sweep removes expired rows from stores without native TTLs until ctx ends.
func (s *stores) sweep(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	if len(s.expirers) == 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, e := range s.expirers {
				removed, err := e.DeleteExpired(ctx)
				if err != nil {
					logger.WarnContext(ctx, "failed to delete expired entries", "error", err)
					continue
				}
				if removed > 0 {
					logger.DebugContext(ctx, "deleted expired entries", "count", removed)
				}
			}
		}
	}
}

func (s *stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.stream != nil {
		s.stream.Close()
	}
}
