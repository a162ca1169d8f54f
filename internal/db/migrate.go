package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations
var migrationsFS embed.FS

// migrateSchema applies the embedded migrations of the backend. The migrate
// drivers close the pool they are handed, so open supplies a dedicated one.
func migrateSchema(backend Backend, open func() (*sql.DB, error)) error {
	src, err := iofs.New(migrationsFS, "migrations/"+backend.String())
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	pool, err := open()
	if err != nil {
		return err
	}

	driver, err := migrationDriver(backend, pool)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, backend.String(), driver)
	if err != nil {
		return fmt.Errorf("failed to init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Debug().Str("backend", backend.String()).Uint("version", version).Bool("dirty", dirty).Msg("schema migrated")
	return nil
}

func migrationDriver(backend Backend, pool *sql.DB) (database.Driver, error) {
	switch backend {
	case SQLite:
		return migratesqlite.WithInstance(pool, &migratesqlite.Config{})
	case Postgres:
		return migratepostgres.WithInstance(pool, &migratepostgres.Config{})
	case MySQL:
		return migratemysql.WithInstance(pool, &migratemysql.Config{})
	default:
		return nil, fmt.Errorf("no migration driver for %s", backend)
	}
}
