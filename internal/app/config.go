package app

import "time"

// Config contains all runtime configuration loaded from environment
// variables (prefix FINBOARD_).
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// MaxBodyBytes caps request bodies at the middleware layer; the auth
	// handlers apply their own tighter cap on top.
	MaxBodyBytes int64

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// TokenSecret signs every access and refresh token. Mandatory; there is
	// no insecure fallback.
	TokenSecret string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	// TrustProxy controls whether forwarded-IP headers are honored for rate
	// limiting. Enable only behind a trusted reverse proxy.
	TrustProxy bool

	// AllowedOrigins feeds both the CORS middleware and the WebSocket origin
	// patterns.
	AllowedOrigins []string

	// SeedDemoUser creates the demo account at startup when it is missing.
	SeedDemoUser bool

	// SentryDSN enables error reporting when set.
	SentryDSN string

	// If true, /readyz returns 503 unless the DB is reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("FINBOARD_HTTP_ADDR", "0.0.0.0:8000"),
		LogLevel: EnvString("FINBOARD_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("FINBOARD_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("FINBOARD_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("FINBOARD_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("FINBOARD_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("FINBOARD_HTTP_MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:   int64(EnvInt("FINBOARD_HTTP_MAX_BODY_BYTES", 1<<20)),

		DatabaseURL: EnvString("FINBOARD_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("FINBOARD_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("FINBOARD_DB_MIN_CONNS", 0),

		TokenSecret: EnvString("FINBOARD_TOKEN_SECRET", ""),
		AccessTTL:   EnvDuration("FINBOARD_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:  EnvDuration("FINBOARD_REFRESH_TTL", 7*24*time.Hour),

		TrustProxy: EnvBool("FINBOARD_TRUST_PROXY", false),

		AllowedOrigins: EnvCSV("FINBOARD_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),

		SeedDemoUser: EnvBool("FINBOARD_SEED_DEMO_USER", true),

		SentryDSN: EnvString("FINBOARD_SENTRY_DSN", ""),

		ReadinessRequireDB: EnvBool("FINBOARD_READINESS_REQUIRE_DB", true),
	}
}
