package domain

import "time"

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	PasswordAlgo        string
	IsActive            bool
	FailedLoginAttempts int
	LockExpiresAt       *time.Time
	PasswordChangedAt   time.Time
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	RegisteredAt        time.Time
	LastLogin           *time.Time
}

// LoginAttempts extracts the lockout tuple from the account row.
func (a *Account) LoginAttempts() LoginAttemptState {
	return LoginAttemptState{
		FailedAttempts: a.FailedLoginAttempts,
		LockExpiresAt:  a.LockExpiresAt,
	}
}

// ResetToken extracts the reset-token tuple from the account row.
// The second return reports whether a token is outstanding.
func (a *Account) ResetToken() (ResetTokenState, bool) {
	if a.ResetTokenHash == nil || a.ResetTokenExpiresAt == nil {
		return ResetTokenState{}, false
	}
	return ResetTokenState{
		TokenHash: *a.ResetTokenHash,
		ExpiresAt: *a.ResetTokenExpiresAt,
	}, true
}

// PasswordHistoryEntry tracks one historical password hash for an account.
// The current live hash is always mirrored as the newest entry.
type PasswordHistoryEntry struct {
	ID           int64
	AccountID    string
	PasswordHash string
	SetAt        time.Time
}
