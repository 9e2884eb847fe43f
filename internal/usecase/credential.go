package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/core/port"
	"github.com/Crekold/vet-backend-sub000/internal/infra/config"
	"github.com/Crekold/vet-backend-sub000/internal/infra/security"
	"github.com/Crekold/vet-backend-sub000/internal/infra/telemetry"
	"github.com/Crekold/vet-backend-sub000/internal/repository"
)

// ResetNotifier delivers a freshly issued reset token to the account's
// contact address. The raw token never touches persistent storage.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// LoginResult carries the outcome of a successful authentication.
type LoginResult struct {
	Token   string
	Account domain.Account
	// PasswordChangeRequired is advisory: the password is older than the
	// configured maximum age but the login itself succeeded.
	PasswordChangeRequired bool
}

// CredentialService orchestrates the credential lifecycle: authentication
// with failed-login lockout, password changes guarded by complexity and
// history rules, and single-use reset tokens.
type CredentialService struct {
	cfg      *config.AppConfig
	accounts port.AccountStore
	hasher   port.PasswordHasher
	policy   *security.PasswordPolicy
	keys     security.KeyProvider
	events   port.EventPublisher
	notifier ResetNotifier
	metrics  *telemetry.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewCredentialService constructs a CredentialService instance.
func NewCredentialService(
	cfg *config.AppConfig,
	accounts port.AccountStore,
	hasher port.PasswordHasher,
	policy *security.PasswordPolicy,
	keys security.KeyProvider,
	events port.EventPublisher,
	notifier ResetNotifier,
	metrics *telemetry.Provider,
	logger *zap.Logger,
) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &CredentialService{
		cfg:      cfg,
		accounts: accounts,
		hasher:   hasher,
		policy:   policy,
		keys:     keys,
		events:   events,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *CredentialService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

func (s *CredentialService) lockoutThreshold() int {
	if s.cfg != nil && s.cfg.Security.LockoutThreshold > 0 {
		return s.cfg.Security.LockoutThreshold
	}
	return 5
}

func (s *CredentialService) lockoutDuration() time.Duration {
	if s.cfg != nil && s.cfg.Security.LockoutDuration > 0 {
		return s.cfg.Security.LockoutDuration
	}
	return 15 * time.Minute
}

func (s *CredentialService) historyDepth() int {
	if s.cfg != nil && s.cfg.Security.PasswordHistoryDepth > 0 {
		return s.cfg.Security.PasswordHistoryDepth
	}
	return 5
}

func (s *CredentialService) resetTokenTTL() time.Duration {
	if s.cfg != nil && s.cfg.Security.ResetTokenTTL > 0 {
		return s.cfg.Security.ResetTokenTTL
	}
	return time.Hour
}

// Authenticate validates a username/password pair against the lockout rules
// and issues an access token on success. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	now := s.now()
	if account.LoginAttempts().Locked(now) {
		// A lock rejects the attempt before the password is even checked:
		// a correct guess during the window must not leak through.
		return nil, ErrAccountLocked
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !ok {
		if err := s.recordFailedAttempt(ctx, account.ID); err != nil {
			// An unrecorded failure must not read as a routine credential
			// mismatch: with the counter never advancing, the threshold
			// would never engage. Surface the store failure instead.
			s.logger.Error("record failed login", zap.Error(err), zap.String("account_id", account.ID))
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		return nil, ErrInvalidCredentials
	}

	state := account.LoginAttempts().RecordSuccess()
	if err := s.accounts.UpdateLoginAttempts(ctx, account.ID, state); err != nil {
		return nil, fmt.Errorf("reset login attempts: %w", err)
	}
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	token, err := s.IssueToken(ctx, *account)
	if err != nil {
		return nil, err
	}

	sanitized := *account
	sanitized.PasswordHash = ""
	sanitized.ResetTokenHash = nil
	sanitized.FailedLoginAttempts = 0
	sanitized.LockExpiresAt = nil
	sanitized.LastLogin = &now

	return &LoginResult{
		Token:                  token,
		Account:                sanitized,
		PasswordChangeRequired: s.policy.Expired(account.PasswordChangedAt, now),
	}, nil
}

// recordFailedAttempt increments the failure counter under a row lock so that
// concurrent wrong-password attempts cannot exceed the threshold before the
// lock engages.
func (s *CredentialService) recordFailedAttempt(ctx context.Context, accountID string) error {
	var locked domain.AccountLockedEvent
	var lockTriggered bool

	err := s.accounts.WithinTx(ctx, func(repo port.AccountRepository) error {
		account, err := repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return fmt.Errorf("lock account row: %w", err)
		}

		now := s.now()
		state, triggered := account.LoginAttempts().RecordFailure(now, s.lockoutThreshold(), s.lockoutDuration())
		if err := repo.UpdateLoginAttempts(ctx, account.ID, state); err != nil {
			return fmt.Errorf("update login attempts: %w", err)
		}

		if triggered {
			lockTriggered = true
			locked = domain.AccountLockedEvent{
				EventID:   uuid.NewString(),
				AccountID: account.ID,
				LockedAt:  now,
				LockedFor: s.lockoutDuration(),
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if lockTriggered {
		s.metrics.LockoutCounter().Inc()
		s.logger.Warn("account locked after repeated failed logins",
			zap.String("account_id", locked.AccountID),
			zap.Duration("locked_for", locked.LockedFor),
		)
		if s.events != nil {
			if err := s.events.PublishAccountLocked(ctx, locked); err != nil {
				s.logger.Error("publish account locked event", zap.Error(err))
			}
		}
	}

	return nil
}

// Unlock clears any lock and failure counter ahead of schedule.
func (s *CredentialService) Unlock(ctx context.Context, accountID string) error {
	if err := s.accounts.UpdateLoginAttempts(ctx, accountID, domain.LoginAttemptState{}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("unlock account: %w", err)
	}
	return nil
}

// IssueToken issues a JWT access token for the authenticated account.
func (s *CredentialService) IssueToken(_ context.Context, account domain.Account) (string, error) {
	if account.ID == "" {
		return "", fmt.Errorf("account id is required")
	}

	now := s.now()
	ttl := s.cfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	claimAudience := jwt.ClaimStrings{}
	if s.cfg.App.Name != "" {
		claimAudience = append(claimAudience, s.cfg.App.Name)
	}

	claims := AccessTokenClaims{
		AccountID: account.ID,
		Username:  account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    s.cfg.App.Name,
			Audience:  claimAudience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keys.SigningKID()

	signingKey, err := s.keys.GetSigningKey()
	if err != nil {
		return "", fmt.Errorf("get signing key: %w", err)
	}

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseAccessToken validates the JWT access token and returns its claims.
func (s *CredentialService) ParseAccessToken(token string) (*AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("access token is required")
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}

		return s.keys.GetVerificationKey(kid)
	}, jwt.WithIssuer(s.cfg.App.Name), jwt.WithAudience(s.cfg.App.Name), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidAccessToken
	}
	if strings.TrimSpace(claims.AccountID) == "" {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// AccessTokenClaims augments registered claims with the account identity.
type AccessTokenClaims struct {
	AccountID string `json:"aid"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}
