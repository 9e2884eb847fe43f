package domain

import "time"

// LoginAttemptState is the per-account lockout tuple: a failed-attempt counter
// plus an optional lock expiration. The zero value is Unlocked(0).
//
// Transitions are pure; persistence happens through the account repository
// inside the same transaction as the login outcome so that concurrent failures
// on one account serialize instead of incrementing a stale counter.
type LoginAttemptState struct {
	FailedAttempts int
	LockExpiresAt  *time.Time
}

// Locked reports whether the state holds an unexpired lock. An expired lock
// timestamp reads as unlocked; the stored value is only cleared by the next
// RecordSuccess or an explicit administrative unlock. Callers must use this
// query rather than inspect LockExpiresAt directly.
func (s LoginAttemptState) Locked(now time.Time) bool {
	return s.LockExpiresAt != nil && s.LockExpiresAt.After(now)
}

// RecordFailure returns the state after one failed credential check.
// While an unexpired lock is in place the failure is a no-op: the lock is
// never extended. When the incremented counter reaches threshold, the state
// transitions to Locked(now+lockFor) with the counter reset to zero so the
// account starts fresh once the lock lapses. The second return reports
// whether this failure triggered the lock.
func (s LoginAttemptState) RecordFailure(now time.Time, threshold int, lockFor time.Duration) (LoginAttemptState, bool) {
	if s.Locked(now) {
		return s, false
	}

	attempts := s.FailedAttempts + 1
	if threshold > 0 && attempts >= threshold {
		until := now.Add(lockFor)
		return LoginAttemptState{FailedAttempts: 0, LockExpiresAt: &until}, true
	}

	return LoginAttemptState{FailedAttempts: attempts, LockExpiresAt: s.LockExpiresAt}, false
}

// RecordSuccess unconditionally returns Unlocked(0), clearing both the
// counter and any stored lock timestamp.
func (s LoginAttemptState) RecordSuccess() LoginAttemptState {
	return LoginAttemptState{}
}

// ResetTokenState is the per-account reset-token tuple. Tokens are stored as
// SHA-256 hashes; at most one token is outstanding per account at a time.
type ResetTokenState struct {
	TokenHash string
	ExpiresAt time.Time
}

// Expired reports whether the token can no longer be consumed.
func (s ResetTokenState) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
