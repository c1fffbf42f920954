// Package sqlstore implements storage.Store on top of database/sql.
//
// The same queries serve every relational backend. Backend differences
// (placeholder syntax, column types) are isolated behind a Dialect, and
// embeddings are stored as JSON text with similarity computed in memory by
// the caller.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fragent/fragent-go/pkg/storage"
)

// Dialect describes the SQL differences between backends.
type Dialect interface {
	// Name returns the backend name (sqlite, postgres, oceanbase).
	Name() string

	// Rebind rewrites a query written with '?' placeholders into the
	// backend's placeholder syntax.
	Rebind(query string) string

	// Schema returns the idempotent DDL statements creating all tables.
	Schema() []string
}

// Store implements storage.Store using a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ storage.Store = (*Store)(nil)

// New wraps an open database handle and creates the tables if needed.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the dialect in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect.Name(), err)
		}
	}
	return nil
}

// execer is the subset of *sql.DB and *sql.Tx used by the queries.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...interface{}) (sql.Result, error) {
	return q.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q execer, query string, args ...interface{}) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q execer, query string, args ...interface{}) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

// withTx runs fn inside a transaction, rolling back when fn fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// mustAffect turns a zero-row result into storage.ErrNotFound.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// notFound maps sql.ErrNoRows to storage.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// paginate renders a portable LIMIT/OFFSET suffix.
func paginate(limit, offset int) (string, []interface{}) {
	if limit <= 0 && offset <= 0 {
		return "", nil
	}
	if limit <= 0 {
		limit = 1<<31 - 1
	}
	if offset <= 0 {
		return " LIMIT ?", []interface{}{limit}
	}
	return " LIMIT ? OFFSET ?", []interface{}{limit, offset}
}
