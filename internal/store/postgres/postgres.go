// Package postgres implements the Domain Model Store (C1) against
// PostgreSQL via sqlx, with the post-commit change broadcast required by
// the core's C1 contract.
package postgres

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/lib/pq" // postgres driver registration

	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/store"
)

// uniqueViolation is PostgreSQL's SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// Store implements store.Store against a *sqlx.DB.
type Store struct {
	db *sqlx.DB

	mu        sync.Mutex
	listeners []store.ChangeListener
}

// New opens a connection pool against dsn and verifies connectivity.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errs.StorageError("connect", err)
	}
	return &Store{db: db}, nil
}

// NewFromDB wraps an already-open *sqlx.DB, used in tests with sqlmock.
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// BeginTxx starts a new transaction.
func (s *Store) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

// OnChange registers a listener invoked exactly once after each mutating
// transaction commits.
func (s *Store) OnChange(listener store.ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Store) broadcast() {
	s.mu.Lock()
	listeners := append([]store.ChangeListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

// RunInTx runs fn inside a transaction, committing on success and firing
// the change broadcast exactly once after the commit — never inside it, so
// a rolled-back mutation can never be observed by a listener.
func (s *Store) RunInTx(ctx context.Context, fn func(exec store.Querier) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.StorageError("begin_tx", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errs.StorageError("commit", translatePQError(err))
	}

	s.broadcast()
	return nil
}

// HealthCheck verifies connectivity with the underlying database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.StorageError("ping", err)
	}
	return nil
}

// translatePQError maps a unique-violation to store.ErrDuplicateEntry so
// callers can branch on it without importing lib/pq.
func translatePQError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return store.ErrDuplicateEntry
	}
	return err
}

func rowsAffectedOrNotFound(result sql.Result, err error) error {
	if err != nil {
		return errs.StorageError("exec", translatePQError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errs.StorageError("rows_affected", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Store = (*Store)(nil)
