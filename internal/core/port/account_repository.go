package port

import (
	"context"
	"time"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts and their
// password history. Implementations return repository.ErrNotFound when the
// requested row does not exist.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error)

	// GetForUpdate reads the account row with a row-level lock. Only
	// meaningful inside a transaction started via AccountStore.WithinTx.
	GetForUpdate(ctx context.Context, id string) (*domain.Account, error)

	SetActive(ctx context.Context, id string, active bool) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateLoginAttempts(ctx context.Context, id string, state domain.LoginAttemptState) error
	UpdatePassword(ctx context.Context, id string, passwordHash, passwordAlgo string, changedAt time.Time) error

	SetResetToken(ctx context.Context, id string, token domain.ResetTokenState) error
	ClearResetToken(ctx context.Context, id string) error

	ListPasswordHistory(ctx context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error)
	AddPasswordHistory(ctx context.Context, entry domain.PasswordHistoryEntry) error
	TrimPasswordHistory(ctx context.Context, accountID string, maxEntries int) error
}

// AccountStore extends the repository with transactional units of work.
// Mutations that must be atomic as a group (live hash + history append +
// reset-token consumption, or a lockout read-modify-write) run inside fn;
// either every statement commits or none do.
type AccountStore interface {
	AccountRepository
	WithinTx(ctx context.Context, fn func(AccountRepository) error) error
}
