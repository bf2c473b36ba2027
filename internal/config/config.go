package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	pkgconfig "github.com/Sahilbhanushali/GharGrocerProd/pkg/config"
)

// FileEnv names the variable holding an optional YAML config file path.
const FileEnv = "STOREFRONT_CONFIG_FILE"

// Mirror backends.
const (
	MirrorMemory = "memory"
	MirrorRedis  = "redis"
	MirrorSQLite = "sqlite"
)

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	PprofCIDRs      []string      `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`

	// Commerce backend
	BackendURL       string        `env:"STOREFRONT_BACKEND_URL" envDefault:"http://localhost:8000/api"`
	RemoteTimeout    time.Duration `env:"REMOTE_TIMEOUT" envDefault:"10s"`
	RemoteMaxRetries int           `env:"REMOTE_MAX_RETRIES" envDefault:"0"`
	BreakerTimeout   time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
	BreakerRatio     float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	ValidateSession  bool          `env:"VALIDATE_SESSION_ON_START" envDefault:"true"`

	// Mirror
	MirrorBackend   string        `env:"MIRROR_BACKEND" envDefault:"memory"`
	MirrorNamespace string        `env:"MIRROR_NAMESPACE" envDefault:"storefront"`
	MirrorTTL       time.Duration `env:"MIRROR_TTL" envDefault:"0s"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass       string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"storefront.db"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// CORS
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment, overlaid on the YAML file
// named by STOREFRONT_CONFIG_FILE when it is set.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFile(os.Getenv(FileEnv), cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL is required")
	}
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend URL: %q", c.BackendURL)
	}
	switch c.MirrorBackend {
	case MirrorMemory, MirrorRedis, MirrorSQLite:
	default:
		return fmt.Errorf("invalid mirror backend: %q", c.MirrorBackend)
	}
	if c.MirrorBackend == MirrorSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required for the sqlite mirror")
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("invalid remote timeout: %s", c.RemoteTimeout)
	}
	if c.RemoteMaxRetries < 0 {
		return fmt.Errorf("invalid remote max retries: %d", c.RemoteMaxRetries)
	}
	if c.BreakerRatio <= 0 || c.BreakerRatio > 1 {
		return fmt.Errorf("invalid breaker failure ratio: %v", c.BreakerRatio)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid rate limit: %v rps, burst %d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL sample rate: %v", c.OTELSampleRate)
	}
	return nil
}
