package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/core/port"
	"github.com/Crekold/vet-backend-sub000/internal/repository"
)

// fakeAccountStore is an in-memory port.AccountStore used across usecase tests.
type fakeAccountStore struct {
	mu            sync.Mutex
	accounts      map[string]*domain.Account
	history       []domain.PasswordHistoryEntry
	nextHistoryID int64
}

var _ port.AccountStore = (*fakeAccountStore)(nil)

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[string]*domain.Account)}
}

func (f *fakeAccountStore) WithinTx(_ context.Context, fn func(port.AccountRepository) error) error {
	return fn(f)
}

func (f *fakeAccountStore) Create(_ context.Context, account domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return repository.ErrConflict
		}
	}

	copied := account
	f.accounts[account.ID] = &copied
	return nil
}

func (f *fakeAccountStore) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(a *domain.Account) bool { return a.ID == id })
}

func (f *fakeAccountStore) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(a *domain.Account) bool { return a.Username == username })
}

func (f *fakeAccountStore) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(a *domain.Account) bool { return a.Email == email })
}

func (f *fakeAccountStore) GetByResetTokenHash(_ context.Context, tokenHash string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(func(a *domain.Account) bool {
		return a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash
	})
}

func (f *fakeAccountStore) GetForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeAccountStore) find(match func(*domain.Account) bool) (*domain.Account, error) {
	for _, account := range f.accounts {
		if match(account) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccountStore) mutate(id string, apply func(*domain.Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	apply(account)
	return nil
}

func (f *fakeAccountStore) SetActive(_ context.Context, id string, active bool) error {
	return f.mutate(id, func(a *domain.Account) { a.IsActive = active })
}

func (f *fakeAccountStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return f.mutate(id, func(a *domain.Account) {
		stamped := at
		a.LastLogin = &stamped
	})
}

func (f *fakeAccountStore) UpdateLoginAttempts(_ context.Context, id string, state domain.LoginAttemptState) error {
	return f.mutate(id, func(a *domain.Account) {
		a.FailedLoginAttempts = state.FailedAttempts
		a.LockExpiresAt = state.LockExpiresAt
	})
}

func (f *fakeAccountStore) UpdatePassword(_ context.Context, id string, passwordHash, passwordAlgo string, changedAt time.Time) error {
	return f.mutate(id, func(a *domain.Account) {
		a.PasswordHash = passwordHash
		a.PasswordAlgo = passwordAlgo
		a.PasswordChangedAt = changedAt
	})
}

func (f *fakeAccountStore) SetResetToken(_ context.Context, id string, token domain.ResetTokenState) error {
	return f.mutate(id, func(a *domain.Account) {
		hash := token.TokenHash
		expires := token.ExpiresAt
		a.ResetTokenHash = &hash
		a.ResetTokenExpiresAt = &expires
	})
}

func (f *fakeAccountStore) ClearResetToken(_ context.Context, id string) error {
	return f.mutate(id, func(a *domain.Account) {
		a.ResetTokenHash = nil
		a.ResetTokenExpiresAt = nil
	})
}

func (f *fakeAccountStore) ListPasswordHistory(_ context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.sortedHistory(accountID)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeAccountStore) AddPasswordHistory(_ context.Context, entry domain.PasswordHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextHistoryID++
	entry.ID = f.nextHistoryID
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeAccountStore) TrimPasswordHistory(_ context.Context, accountID string, maxEntries int) error {
	if maxEntries <= 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	keep := f.sortedHistory(accountID)
	if len(keep) > maxEntries {
		keep = keep[:maxEntries]
	}

	keepIDs := make(map[int64]bool, len(keep))
	for _, entry := range keep {
		keepIDs[entry.ID] = true
	}

	filtered := f.history[:0]
	for _, entry := range f.history {
		if entry.AccountID != accountID || keepIDs[entry.ID] {
			filtered = append(filtered, entry)
		}
	}
	f.history = filtered
	return nil
}

// sortedHistory returns the account's entries newest first. Callers must hold
// the mutex.
func (f *fakeAccountStore) sortedHistory(accountID string) []domain.PasswordHistoryEntry {
	var entries []domain.PasswordHistoryEntry
	for _, entry := range f.history {
		if entry.AccountID == accountID {
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SetAt.Equal(entries[j].SetAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].SetAt.After(entries[j].SetAt)
	})

	return entries
}

func (f *fakeAccountStore) historyCount(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sortedHistory(accountID))
}

// brokenTxStore fails every transactional unit of work.
type brokenTxStore struct {
	*fakeAccountStore
	txErr error
}

func (s *brokenTxStore) WithinTx(context.Context, func(port.AccountRepository) error) error {
	return s.txErr
}

// racingRedeemStore simulates a competing reset redemption that commits
// between this call's token lookup and its own transaction: the first
// transaction started through it finds the token already consumed.
type racingRedeemStore struct {
	*fakeAccountStore
	accountID string
	raced     bool
}

func (s *racingRedeemStore) WithinTx(ctx context.Context, fn func(port.AccountRepository) error) error {
	if !s.raced {
		s.raced = true
		if err := s.fakeAccountStore.ClearResetToken(ctx, s.accountID); err != nil {
			return err
		}
	}
	return s.fakeAccountStore.WithinTx(ctx, fn)
}

// capturePublisher records every published event.
type capturePublisher struct {
	mu              sync.Mutex
	registered      []domain.AccountRegisteredEvent
	passwordChanged []domain.PasswordChangedEvent
	resetRequested  []domain.PasswordResetRequestedEvent
	locked          []domain.AccountLockedEvent
}

var _ port.EventPublisher = (*capturePublisher)(nil)

func (p *capturePublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *capturePublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordChanged = append(p.passwordChanged, event)
	return nil
}

func (p *capturePublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetRequested = append(p.resetRequested, event)
	return nil
}

func (p *capturePublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = append(p.locked, event)
	return nil
}

// captureNotifier records reset-token deliveries.
type captureNotifier struct {
	mu     sync.Mutex
	emails []string
	tokens []string
}

var _ ResetNotifier = (*captureNotifier)(nil)

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, token string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, email)
	n.tokens = append(n.tokens, token)
	return nil
}

func (n *captureNotifier) lastToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.tokens) == 0 {
		return ""
	}
	return n.tokens[len(n.tokens)-1]
}
