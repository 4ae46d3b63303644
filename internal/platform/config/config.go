package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr       string
	LogLevel   string
	LogFormat  string
	AdminToken string

	HTTP     HTTPConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
}

// HTTPConfig bounds how long a connection may hold the listener.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// AuthConfig covers token signing and the browser session cookie.
type AuthConfig struct {
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
	SessionTTL     time.Duration
	CookieName     string
	CookieSecure   bool
	LoginURL       string
}

// RedisConfig configures the shared session and revocation store.
// An empty URL selects in-memory stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the PostgreSQL user and audit stores.
// An empty DSN selects in-memory stores.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

// KafkaConfig configures the audit event stream. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string
	AuditTopic        string
	Partitions        int
	ReplicationFactor int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; production deployments must override it.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:       getEnv("BELLGAS_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		HTTP: HTTPConfig{
			ReadHeaderTimeout: getDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getDuration("HTTP_IDLE_TIMEOUT", time.Minute),
			ShutdownTimeout:   getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey:  jwtSigningKey,
			JWTIssuer:      getEnv("JWT_ISSUER", "bellgas"),
			JWTAudience:    getEnv("JWT_AUDIENCE", "bellgas-storefront"),
			AccessTokenTTL: getDuration("ACCESS_TOKEN_TTL", time.Hour),
			SessionTTL:     getDuration("SESSION_TTL", 2*time.Hour),
			CookieName:     getEnv("SESSION_COOKIE_NAME", "bellgas_session"),
			CookieSecure:   getBool("SESSION_COOKIE_SECURE", false),
			LoginURL:       getEnv("LOGIN_URL", "/login"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			Migrate:         getBool("DB_MIGRATE", true),
		},
		Kafka: KafkaConfig{
			Brokers:           getList("KAFKA_BROKERS"),
			AuditTopic:        getEnv("KAFKA_AUDIT_TOPIC", "bellgas.audit"),
			Partitions:        getInt("KAFKA_AUDIT_PARTITIONS", 3),
			ReplicationFactor: getInt("KAFKA_AUDIT_REPLICATION", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getList splits a comma separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
