package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // sqlite driver
)

// DefaultURL is used when no connection string is configured.
const DefaultURL = "sqlite://./db/podcast.db"

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Backend is one of the supported relational engines.
type Backend int

const (
	SQLite Backend = iota
	Postgres
	MySQL
)

func (b Backend) String() string {
	switch b {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// DriverName is the database/sql driver registered for the backend.
func (b Backend) DriverName() string {
	return b.String()
}

// ConnectionOptions tune every physical connection when the pool opens it.
// Only SQLite has session tuning; the other engines ignore these.
type ConnectionOptions struct {
	EnableWAL         bool
	EnableForeignKeys bool
	BusyTimeout       time.Duration
	MaxOpenConns      int
}

// Statements returns the session statements applied on connection acquisition.
func (o ConnectionOptions) Statements(b Backend) []string {
	if b != SQLite {
		return nil
	}
	var stmts []string
	if o.EnableWAL {
		stmts = append(stmts, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	if o.EnableForeignKeys {
		stmts = append(stmts, "PRAGMA foreign_keys = ON")
	}
	if o.BusyTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("PRAGMA busy_timeout = %d", o.BusyTimeout.Milliseconds()))
	}
	return stmts
}

// ParseURL resolves a connection string into its backend and the data
// source name understood by that backend's driver.
func ParseURL(raw string) (Backend, string, error) {
	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		return sqlitePath(strings.TrimPrefix(raw, "sqlite://"))
	case strings.HasPrefix(raw, "sqlite:"):
		return sqlitePath(strings.TrimPrefix(raw, "sqlite:"))
	case strings.HasPrefix(raw, "file:"):
		return SQLite, raw, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		if _, err := url.Parse(raw); err != nil {
			return 0, "", fmt.Errorf("invalid postgres url: %w", err)
		}
		return Postgres, raw, nil
	case strings.HasPrefix(raw, "mysql://"):
		dsn, err := mysqlDSN(raw)
		if err != nil {
			return 0, "", err
		}
		return MySQL, dsn, nil
	default:
		return 0, "", fmt.Errorf("unsupported database url %q", raw)
	}
}

func sqlitePath(path string) (Backend, string, error) {
	if path == "" {
		return 0, "", fmt.Errorf("sqlite url has no path")
	}
	return SQLite, path, nil
}

func mysqlDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("mysql url has no host")
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.ParseTime = true
	// migrations run multi-statement files
	cfg.MultiStatements = true
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg.FormatDSN(), nil
}

// Open resolves rawURL, opens a tuned pool, checks it and migrates the schema.
func Open(ctx context.Context, rawURL string, opts ConnectionOptions) (*Store, error) {
	backend, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	if backend == SQLite {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}

	pool, err := openPool(backend, dsn, opts)
	if err != nil {
		return nil, err
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", backend, err)
	}

	if err := migrateSchema(backend, func() (*sql.DB, error) {
		return openPool(backend, dsn, opts)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", backend, err)
	}

	return NewStore(sqlx.NewDb(pool, backend.DriverName()), backend), nil
}

// EstablishConnection opens the store or terminates the process; the
// server has no mode without storage.
func EstablishConnection(rawURL string, opts ConnectionOptions, logger zerolog.Logger) *Store {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Open(ctx, rawURL, opts)
	if err != nil {
		logger.Fatal().Err(err).Str("url", redact(rawURL)).Msg("Error connecting to database")
	}
	logger.Info().Str("backend", store.Backend().String()).Msg("Database connection established")
	return store
}

func openPool(backend Backend, dsn string, opts ConnectionOptions) (*sql.DB, error) {
	var (
		pool *sql.DB
		err  error
	)
	if stmts := opts.Statements(backend); len(stmts) > 0 {
		pool, err = openTuned(backend.DriverName(), dsn, stmts)
	} else {
		pool, err = sql.Open(backend.DriverName(), dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	pool.SetConnMaxLifetime(30 * time.Minute)
	return pool, nil
}

func ensureSQLiteDir(dsn string) error {
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	return nil
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
