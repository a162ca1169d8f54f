package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"podfetch/internal/db"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	Database DatabaseConfig
	Auth     AuthConfig
	HTTP     HTTPConfig
	Redis    RedisConfig

	LogLevel   string
	PodcastDir string
}

// DatabaseConfig selects the storage backend and its connection tuning.
type DatabaseConfig struct {
	URL            string
	EnableWAL      bool
	ForeignKeys    bool
	BusyTimeout    time.Duration
	MaxOpenConns   int
	PanicOnDBError bool
}

// AuthConfig holds the static admin credentials and session settings.
type AuthConfig struct {
	BasicAuth  bool
	Username   string
	Password   string
	SessionTTL time.Duration
}

type HTTPConfig struct {
	Port           string
	ServerURL      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type RedisConfig struct {
	Addr string
}

// ConnectionOptions converts the database section into pool tuning options.
func (c DatabaseConfig) ConnectionOptions() db.ConnectionOptions {
	return db.ConnectionOptions{
		EnableWAL:         c.EnableWAL,
		EnableForeignKeys: c.ForeignKeys,
		BusyTimeout:       c.BusyTimeout,
		MaxOpenConns:      c.MaxOpenConns,
	}
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv-style lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:            p.str("DATABASE_URL", db.DefaultURL),
			EnableWAL:      p.boolean("DB_ENABLE_WAL", true),
			ForeignKeys:    p.boolean("DB_FOREIGN_KEYS", true),
			BusyTimeout:    time.Duration(p.integer("DB_BUSY_TIMEOUT_MS", 5000)) * time.Millisecond,
			MaxOpenConns:   p.integer("DB_MAX_OPEN_CONNS", 10),
			PanicOnDBError: p.boolean("PANIC_ON_DB_ERROR", false),
		},
		Auth: AuthConfig{
			BasicAuth:  p.boolean("BASIC_AUTH", false),
			Username:   p.str("USERNAME", "admin"),
			Password:   p.str("PASSWORD", ""),
			SessionTTL: p.duration("SESSION_TTL", 30*24*time.Hour),
		},
		HTTP: HTTPConfig{
			Port:           p.str("PORT", "8000"),
			RateLimitRPS:   p.float("RATE_LIMIT_RPS", 20),
			RateLimitBurst: p.integer("RATE_LIMIT_BURST", 40),
		},
		Redis: RedisConfig{
			Addr: p.str("REDIS_ADDR", "127.0.0.1:6379"),
		},
		LogLevel:   p.str("LOG_LEVEL", "info"),
		PodcastDir: p.str("PODCAST_DIR", "./podcasts"),
	}

	cfg.HTTP.ServerURL = normalizeServerURL(p.str("SERVER_URL", "http://localhost:"+cfg.HTTP.Port))
	if origins := p.str("CORS_ORIGINS", "*"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			cfg.HTTP.CORSOrigins = append(cfg.HTTP.CORSOrigins, strings.TrimSpace(o))
		}
	}

	if p.err != nil {
		return nil, p.err
	}
	if cfg.Auth.BasicAuth && cfg.Auth.Password == "" {
		return nil, fmt.Errorf("BASIC_AUTH is enabled but PASSWORD is not set")
	}
	return cfg, nil
}

func normalizeServerURL(u string) string {
	if !strings.HasSuffix(u, "/") {
		return u + "/"
	}
	return u
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) integer(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return i
}

func (p *parser) float(key string, def float64) float64 {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
}
