package domain

import "time"

// AccountRegisteredEvent represents the payload for credential.account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Username     string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// PasswordChangedEvent represents the payload for credential.password.changed messages.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Source    string
	Metadata  map[string]any
}

// PasswordResetRequestedEvent represents the payload for credential.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID           string
	AccountID         string
	RequestID         string
	RequestedAt       time.Time
	MaskedDestination string
	ExpiresAt         time.Time
	Metadata          map[string]any
}

// AccountLockedEvent represents the payload for credential.account.locked messages.
type AccountLockedEvent struct {
	EventID   string
	AccountID string
	LockedAt  time.Time
	LockedFor time.Duration
	Metadata  map[string]any
}
