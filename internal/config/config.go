// Package config loads settings shared by the terminal, fetch and API
// binaries.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ngmaloney/buoy-terminal/internal/cache"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// Config holds every setting. Zero values mean "use the default".
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	DataDir     string        `yaml:"data_dir"`
	DBPath      string        `yaml:"db_path"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Retries     int           `yaml:"retries"`
	UserAgent   string        `yaml:"user_agent"`
	Concurrency int           `yaml:"concurrency"`
	Timeframe   string        `yaml:"timeframe"`

	Redis    RedisConfig   `yaml:"redis"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // cached responses and resolved availability

	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	LogLevel string `yaml:"log_level"`
}

// RedisConfig enables the shared response cache when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		BaseURL:     ndbc.DefaultBaseURL,
		DataDir:     "data",
		HTTPTimeout: 30 * time.Second,
		Retries:     2,
		UserAgent:   "buoy-terminal/1.0",
		Concurrency: 4,
		Timeframe:   "all",
		CacheTTL:    10 * time.Minute,
		Port:        "8080",
		LogLevel:    "info",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if
// any), then .env, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}

	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "%s", key)
			}
			*dst = n
		}
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.Wrapf(err, "%s", key)
			}
			*dst = d
		}
		return nil
	}

	str("BUOY_BASE_URL", &c.BaseURL)
	str("BUOY_DATA_DIR", &c.DataDir)
	str("BUOY_DB_PATH", &c.DBPath)
	str("BUOY_USER_AGENT", &c.UserAgent)
	str("BUOY_TIMEFRAME", &c.Timeframe)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)

	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, o)
			}
		}
	}

	for _, err := range []error{
		integer("BUOY_RETRIES", &c.Retries),
		integer("BUOY_CONCURRENCY", &c.Concurrency),
		integer("REDIS_DB", &c.Redis.DB),
		duration("BUOY_HTTP_TIMEOUT", &c.HTTPTimeout),
		duration("CACHE_TTL", &c.CacheTTL),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// DatabasePath is DBPath, or buoy-terminal.db under DataDir
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "buoy-terminal.db")
}

// Apply points the shared database helpers at DataDir
func (c *Config) Apply() {
	database.SetDataDir(c.DataDir)
}

// Cache returns the Redis cache when configured, nil otherwise. A Redis
// that does not answer is logged and skipped.
func (c *Config) Cache(ctx context.Context) cache.Store {
	if c.Redis.Addr == "" {
		return nil
	}
	r := cache.NewRedis(c.Redis.Addr, c.Redis.Password, c.Redis.DB, "buoy:")
	if err := r.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", c.Redis.Addr).Msg("redis unavailable, caching disabled")
		r.Close()
		return nil
	}
	return r
}

// ClientOptions turns the settings into NDBC client options
func (c *Config) ClientOptions(store cache.Store) []ndbc.Option {
	opts := []ndbc.Option{
		ndbc.WithBaseURL(c.BaseURL),
		ndbc.WithTimeout(c.HTTPTimeout),
		ndbc.WithRetries(c.Retries),
		ndbc.WithUserAgent(c.UserAgent),
		ndbc.WithConcurrency(c.Concurrency),
		ndbc.WithAvailabilityTTL(c.CacheTTL),
	}
	if store != nil {
		opts = append(opts, ndbc.WithCache(store, c.CacheTTL))
	}
	return opts
}
