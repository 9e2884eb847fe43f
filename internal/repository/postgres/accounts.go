package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/repository"
)

var accountColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"password_algo",
	"is_active",
	"failed_login_attempts",
	"lock_expires_at",
	"password_changed_at",
	"reset_token_hash",
	"reset_token_expires_at",
	"registered_at",
	"last_login",
}

// Create inserts a new account row.
func (s *Store) Create(ctx context.Context, account domain.Account) error {
	query, args, err := builder.
		Insert("accounts").
		Columns(accountColumns...).
		Values(
			account.ID,
			account.Username,
			account.Email,
			account.PasswordHash,
			account.PasswordAlgo,
			account.IsActive,
			account.FailedLoginAttempts,
			account.LockExpiresAt,
			account.PasswordChangedAt,
			account.ResetTokenHash,
			account.ResetTokenExpiresAt,
			account.RegisteredAt,
			account.LastLogin,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account query: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID fetches an account by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.getAccount(ctx, sq.Eq{"id": id}, false)
}

// GetByUsername fetches an account by its unique username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.getAccount(ctx, sq.Eq{"username": username}, false)
}

// GetByEmail fetches an account by its unique email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getAccount(ctx, sq.Eq{"email": email}, false)
}

// GetByResetTokenHash fetches the account holding the given reset-token hash.
func (s *Store) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	return s.getAccount(ctx, sq.Eq{"reset_token_hash": tokenHash}, false)
}

// GetForUpdate fetches an account by id with SELECT ... FOR UPDATE. It only
// has locking effect when called on a repository bound to a transaction.
func (s *Store) GetForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return s.getAccount(ctx, sq.Eq{"id": id}, true)
}

func (s *Store) getAccount(ctx context.Context, pred sq.Eq, forUpdate bool) (*domain.Account, error) {
	q := builder.
		Select(accountColumns...).
		From("accounts").
		Where(pred)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account query: %w", err)
	}

	var account domain.Account
	err = s.db.QueryRow(ctx, query, args...).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.PasswordAlgo,
		&account.IsActive,
		&account.FailedLoginAttempts,
		&account.LockExpiresAt,
		&account.PasswordChangedAt,
		&account.ResetTokenHash,
		&account.ResetTokenExpiresAt,
		&account.RegisteredAt,
		&account.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}

	return &account, nil
}

// SetActive toggles the account's active flag.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.updateAccount(ctx, id, sq.Eq{"is_active": active})
}

// UpdateLastLogin stamps the most recent successful login.
func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.updateAccount(ctx, id, sq.Eq{"last_login": at})
}

// UpdateLoginAttempts persists the lockout tuple in one statement.
func (s *Store) UpdateLoginAttempts(ctx context.Context, id string, state domain.LoginAttemptState) error {
	return s.updateAccount(ctx, id, sq.Eq{
		"failed_login_attempts": state.FailedAttempts,
		"lock_expires_at":       state.LockExpiresAt,
	})
}

// UpdatePassword swaps the live hash and records when it changed.
func (s *Store) UpdatePassword(ctx context.Context, id string, passwordHash, passwordAlgo string, changedAt time.Time) error {
	return s.updateAccount(ctx, id, sq.Eq{
		"password_hash":       passwordHash,
		"password_algo":       passwordAlgo,
		"password_changed_at": changedAt,
	})
}

// SetResetToken stores a reset-token digest and its expiry, replacing any
// outstanding token.
func (s *Store) SetResetToken(ctx context.Context, id string, token domain.ResetTokenState) error {
	return s.updateAccount(ctx, id, sq.Eq{
		"reset_token_hash":       token.TokenHash,
		"reset_token_expires_at": token.ExpiresAt,
	})
}

// ClearResetToken discards any outstanding reset token.
func (s *Store) ClearResetToken(ctx context.Context, id string) error {
	return s.updateAccount(ctx, id, sq.Eq{
		"reset_token_hash":       nil,
		"reset_token_expires_at": nil,
	})
}

func (s *Store) updateAccount(ctx context.Context, id string, set sq.Eq) error {
	q := builder.Update("accounts").Where(sq.Eq{"id": id})
	for column, value := range set {
		q = q.Set(column, value)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update account query: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListPasswordHistory returns the newest limit history entries, most recent
// first. A non-positive limit returns all entries.
func (s *Store) ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error) {
	q := builder.
		Select("id", "account_id", "password_hash", "set_at").
		From("account_password_history").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("set_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select history query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select password history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PasswordHistoryEntry
	for rows.Next() {
		var entry domain.PasswordHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.PasswordHash, &entry.SetAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate password history: %w", err)
	}

	return entries, nil
}

// AddPasswordHistory appends one history entry.
func (s *Store) AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error {
	query, args, err := builder.
		Insert("account_password_history").
		Columns("account_id", "password_hash", "set_at").
		Values(entry.AccountID, entry.PasswordHash, entry.SetAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert history query: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert password history: %w", err)
	}

	return nil
}

// TrimPasswordHistory deletes everything older than the newest maxEntries
// entries for the account.
func (s *Store) TrimPasswordHistory(ctx context.Context, accountID string, maxEntries int) error {
	if maxEntries <= 0 {
		return nil
	}

	query := `
		DELETE FROM account_password_history
		WHERE account_id = $1
		  AND id NOT IN (
			SELECT id FROM account_password_history
			WHERE account_id = $1
			ORDER BY set_at DESC, id DESC
			LIMIT $2
		  )`

	if _, err := s.db.Exec(ctx, query, accountID, maxEntries); err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}

	return nil
}
