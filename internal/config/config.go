package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port string `yaml:"port" env:"CONSOLE_PORT" env-default:"8080"`

	APIBaseURL        string `yaml:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:8081/api"`
	APITimeoutSeconds int    `yaml:"api_timeout_seconds" env:"API_TIMEOUT_SECONDS" env-default:"15"`

	SessionBackend  string `yaml:"session_backend" env:"SESSION_BACKEND" env-default:"memory"`
	SessionTTLHours int    `yaml:"session_ttl_hours" env:"SESSION_TTL_HOURS" env-default:"8"`
	CookieSecure    bool   `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
	DatabaseURL     string `yaml:"db_dsn" env:"DB_DSN"`
	RedisAddr       string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword   string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB         int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`

	LoginRateLimitPerMinute int  `yaml:"login_rate_limit_per_min" env:"LOGIN_RATE_LIMIT_PER_MIN" env-default:"20"`
	LoginRateLimitBurst     int  `yaml:"login_rate_limit_burst" env:"LOGIN_RATE_LIMIT_BURST" env-default:"5"`
	TrustProxy              bool `yaml:"trust_proxy" env:"TRUST_PROXY" env-default:"false"`

	SearchDebounceMillis int `yaml:"search_debounce_ms" env:"SEARCH_DEBOUNCE_MS" env-default:"300"`
	PageSize             int `yaml:"page_size" env:"PAGE_SIZE" env-default:"10"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`

	Environment      string  `yaml:"environment" env:"APP_ENV" env-default:"development"`
	TraceSampleRatio float64 `yaml:"trace_sample_ratio" env:"OTEL_TRACES_SAMPLE_RATIO" env-default:"1"`
}

func (c Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMillis) * time.Millisecond
}

// Load reads .env (if present), then the YAML file named by CONSOLE_CONFIG
// (default config.yaml, optional), then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("CONSOLE_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config error: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config error: DB_DSN is required for the postgres session backend")
		}
	default:
		return fmt.Errorf("config error: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.APIBaseURL == "" {
		return errors.New("config error: API_BASE_URL is required")
	}
	if c.APITimeoutSeconds <= 0 {
		c.APITimeoutSeconds = 15
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = 8
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.SearchDebounceMillis < 0 {
		c.SearchDebounceMillis = 0
	}
	c.TraceSampleRatio = min(max(c.TraceSampleRatio, 0), 1)
	return nil
}
