package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Crekold/vet-backend-sub000/internal/core/port"
)

// pgExecutor is satisfied by both *pgxpool.Pool and pgx.Tx, so the same query
// methods serve pooled and transactional calls.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is the Postgres-backed account store.
type Store struct {
	pool *pgxpool.Pool
	db   pgExecutor
}

var _ port.AccountStore = (*Store)(nil)

// NewStore wraps a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// newTxStore binds a store to an open transaction.
func newTxStore(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

// WithinTx runs fn inside a single transaction. The repository passed to fn
// executes every statement on that transaction; an error from fn rolls
// everything back.
func (s *Store) WithinTx(ctx context.Context, fn func(port.AccountRepository) error) error {
	if s.pool == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(newTxStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
