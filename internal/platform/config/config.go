package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ledgerguard/internal/policy"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string

	Authorization Authorization
	Resolver      Resolver
	Audit         Audit
	Redis         RedisConfig
	Database      DatabaseConfig
}

// Authorization tunes the threshold engine.
type Authorization struct {
	UnfilteredPolicy  policy.UnfilteredMode
	VerifyTimeout     time.Duration
	VerifyConcurrency int
}

// Resolver locates verification keys. With URL empty keys come from the
// database, or from the in-memory fixture set when no database is configured.
// SeedFile, when set, is loaded into that local store at startup.
type Resolver struct {
	URL      string
	CacheTTL time.Duration
	SeedFile string
}

// Audit sizes the audit queue. Zero publishes synchronously on the request path.
type Audit struct {
	QueueSize int
}

// RedisConfig configures the key cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the Postgres key store. An empty URL disables it.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var (
		cfg  Server
		errs []error
	)
	cfg.Addr = getEnv("LEDGERGUARD_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")

	mode, err := policy.ParseUnfilteredMode(os.Getenv("LEDGERGUARD_UNFILTERED_POLICY"))
	errs = append(errs, err)
	cfg.Authorization = Authorization{
		UnfilteredPolicy:  mode,
		VerifyTimeout:     getDuration("LEDGERGUARD_VERIFY_TIMEOUT", 5*time.Second, &errs),
		VerifyConcurrency: getInt("LEDGERGUARD_VERIFY_CONCURRENCY", 8, &errs),
	}
	cfg.Resolver = Resolver{
		URL:      os.Getenv("LEDGERGUARD_RESOLVER_URL"),
		CacheTTL: getDuration("LEDGERGUARD_KEY_CACHE_TTL", 10*time.Minute, &errs),
		SeedFile: os.Getenv("LEDGERGUARD_KEYS_FILE"),
	}
	cfg.Audit = Audit{
		QueueSize: getInt("LEDGERGUARD_AUDIT_QUEUE_SIZE", 1024, &errs),
	}
	cfg.Redis = RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
		MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
		DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
		ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
		WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
	}
	cfg.Database = DatabaseConfig{
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10, &errs),
		MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5, &errs),
	}

	for _, err := range errs {
		if err != nil {
			return Server{}, err
		}
	}
	if cfg.Authorization.VerifyConcurrency < 1 {
		return Server{}, fmt.Errorf("LEDGERGUARD_VERIFY_CONCURRENCY must be positive")
	}
	if cfg.Audit.QueueSize < 0 {
		return Server{}, fmt.Errorf("LEDGERGUARD_AUDIT_QUEUE_SIZE must not be negative")
	}
	if cfg.Resolver.URL != "" && cfg.Resolver.SeedFile != "" {
		return Server{}, fmt.Errorf("LEDGERGUARD_KEYS_FILE cannot be combined with LEDGERGUARD_RESOLVER_URL")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}
