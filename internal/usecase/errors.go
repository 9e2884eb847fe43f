package usecase

import "errors"

var (
	// ErrInvalidCredentials indicates the provided username or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive indicates the account is administratively disabled.
	ErrAccountInactive = errors.New("account is not active")
	// ErrAccountLocked indicates the account is under a temporary failed-login lock.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists indicates the username or email is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidResetToken indicates the reset token is unknown or already consumed.
	ErrInvalidResetToken = errors.New("invalid reset token")
	// ErrExpiredResetToken indicates the reset token exists but its window has
	// passed. Callers collapse it with ErrInvalidResetToken in user-facing
	// messages; the distinction exists for logs and metrics only.
	ErrExpiredResetToken = errors.New("expired reset token")
	// ErrInvalidAccessToken indicates the access token is malformed or its signature failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)
