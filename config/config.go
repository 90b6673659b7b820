package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment.
// Values in a local .env file are loaded first and never override
// variables that are already set.
type Config struct {
	Env  string `env:"APP_ENV" env-default:"prod"`
	Port string `env:"PORT" env-default:"8765"`

	// Upstream Google Custom Search credentials.
	GoogleAPIKey   string `env:"GOOGLE_API_KEY"`
	SearchEngineID string `env:"SEARCH_ENGINE_ID"`

	// ClientKey is the shared secret callers present with every search.
	ClientKey string `env:"CLIENT_KEY"`

	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" env-default:"10"`
	RateLimitPerDay    int           `env:"RATE_LIMIT_PER_DAY" env-default:"100"`
	ResultCap          int           `env:"RESULT_CAP" env-default:"1000"`
	UpstreamTimeout    time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"30s"`
	UpstreamRetries    int           `env:"UPSTREAM_RETRIES" env-default:"3"`

	LogFile      string `env:"LOG_FILE" env-default:"app.log"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"data/leads.db"`
}

// Load reads envFiles (missing files are ignored) and then the process
// environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimitPerMinute <= 0 || c.RateLimitPerDay <= 0 {
		return fmt.Errorf("rate limits must be positive (per minute %d, per day %d)", c.RateLimitPerMinute, c.RateLimitPerDay)
	}
	if c.ResultCap <= 0 {
		return fmt.Errorf("RESULT_CAP must be positive, got %d", c.ResultCap)
	}
	if c.UpstreamRetries < 0 {
		return fmt.Errorf("UPSTREAM_RETRIES must not be negative, got %d", c.UpstreamRetries)
	}
	return nil
}

// Missing lists the secrets that are unset. The server still starts
// without them but every search will fail until they are provided.
func (c *Config) Missing() []string {
	var out []string
	if c.GoogleAPIKey == "" {
		out = append(out, "GOOGLE_API_KEY")
	}
	if c.SearchEngineID == "" {
		out = append(out, "SEARCH_ENGINE_ID")
	}
	if c.ClientKey == "" {
		out = append(out, "CLIENT_KEY")
	}
	return out
}
