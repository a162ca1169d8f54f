package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by operations that require an existing row.
var ErrNotFound = errors.New("record not found")

// Store is the pooled handle every query goes through.
type Store struct {
	db      *sqlx.DB
	backend Backend
}

// NewStore wraps an open pool. Tests pass a sqlmock-backed *sqlx.DB here.
func NewStore(x *sqlx.DB, backend Backend) *Store {
	return &Store{db: x, backend: backend}
}

func (s *Store) Backend() Backend { return s.backend }
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// q rewrites ? placeholders for the active backend.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// InsertID executes an INSERT and returns the new row id. query must not
// carry a RETURNING clause; it is added where the backend supports it.
func (s *Store) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	return s.insertID(ctx, s.db, query, args...)
}

func (s *Store) insertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (int64, error) {
	if s.backend == MySQL {
		res, err := ext.ExecContext(ctx, s.q(query), args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	var id int64
	err := ext.QueryRowxContext(ctx, s.q(strings.TrimRight(query, "; \n\t")+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// getOptional is Get that turns "no rows" into a nil result.
func getOptional[T any](ctx context.Context, s *Store, query string, args ...any) (*T, error) {
	var v T
	err := s.db.GetContext(ctx, &v, s.q(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func now() time.Time {
	return time.Now().UTC()
}
