package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config is loaded from SHOP_-prefixed environment variables, flags, and
// config.yaml.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL URL, or sqlite:<path> for an embedded store" flag:"database-url"`
	JWT         JWTConfig
	Analytics   AnalyticsConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// JWTConfig verifies bearer tokens issued by the accounts service.
type JWTConfig struct {
	Secret string        `usage:"HMAC secret for HS256 tokens" flag:"jwt-secret"`
	Issuer string        `default:"" usage:"Expected iss claim, empty to skip" flag:"jwt-issuer"`
	Leeway time.Duration `default:"30s" usage:"Allowed clock skew" flag:"jwt-leeway"`
}

// AnalyticsConfig selects the analytics sink. Without a write key events are
// only logged.
type AnalyticsConfig struct {
	WriteKey      string        `usage:"Segment write key" flag:"analytics-write-key"`
	Endpoint      string        `default:"https://api.segment.io" usage:"Segment API endpoint" flag:"analytics-endpoint"`
	FlushInterval time.Duration `default:"5s" usage:"How often queued analytics calls are sent" flag:"analytics-flush-interval"`
	Timeout       time.Duration `default:"5s" usage:"Budget for analytics calls after an order commits" flag:"analytics-timeout"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads and validates the configuration.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	case c.JWT.Secret == "":
		return errors.New("jwt secret is required: set SHOP_JWT_SECRET")
	case c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0:
		return errors.Errorf("invalid rate limit %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	case c.Analytics.Timeout <= 0:
		return errors.New("analytics timeout must be positive")
	}
	return nil
}

// applyPlatformDefaults maps DATABASE_URL and PORT, as set by PaaS platforms,
// onto the SHOP_ settings when those are unset.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
