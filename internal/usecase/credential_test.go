package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/infra/config"
	"github.com/Crekold/vet-backend-sub000/internal/infra/security"
)

type testEnv struct {
	service  *CredentialService
	store    *fakeAccountStore
	events   *capturePublisher
	notifier *captureNotifier
	hasher   *security.Hasher
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.AppConfig{
		App: config.AppSettings{Name: "vet-credentials-test", Env: "test"},
		JWT: config.JWTSettings{AccessTokenTTL: 15 * time.Minute},
		Security: config.SecuritySettings{
			LockoutThreshold:     5,
			LockoutDuration:      15 * time.Minute,
			PasswordHistoryDepth: 5,
			PasswordMaxAge:       90 * 24 * time.Hour,
			PasswordMinLength:    8,
			ResetTokenTTL:        time.Hour,
		},
	}

	hasher, err := security.NewHasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	keys, err := security.NewEphemeralKeyProvider()
	if err != nil {
		t.Fatalf("new key provider: %v", err)
	}

	policy := security.NewPasswordPolicy(security.PasswordPolicyConfig{
		MinLength: cfg.Security.PasswordMinLength,
		MaxAge:    cfg.Security.PasswordMaxAge,
	})

	env := &testEnv{
		store:    newFakeAccountStore(),
		events:   &capturePublisher{},
		notifier: &captureNotifier{},
		hasher:   hasher,
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	env.service = NewCredentialService(
		cfg,
		env.store,
		hasher,
		policy,
		keys,
		env.events,
		env.notifier,
		nil,
		zaptest.NewLogger(t),
	)
	env.service.WithClock(func() time.Time { return env.now })

	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) seedAccount(t *testing.T, username, email, password string) *domain.Account {
	t.Helper()

	hash, err := e.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash seed password: %v", err)
	}

	account := domain.Account{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		PasswordAlgo:      security.PasswordAlgo,
		IsActive:          true,
		PasswordChangedAt: e.now,
		RegisteredAt:      e.now,
	}

	ctx := context.Background()
	if err := e.store.Create(ctx, account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := e.store.AddPasswordHistory(ctx, domain.PasswordHistoryEntry{
		AccountID:    account.ID,
		PasswordHash: hash,
		SetAt:        e.now,
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	return &account
}

func (e *testEnv) storedAccount(t *testing.T, id string) *domain.Account {
	t.Helper()

	account, err := e.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("fetch account: %v", err)
	}
	return account
}

func TestAuthenticateSuccess(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seedAccount(t, "ada", "ada@example.com", "Correct1!")

	result, err := env.service.Authenticate(context.Background(), "ada", "Correct1!")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if result.Token == "" {
		t.Fatal("expected an access token")
	}
	if result.PasswordChangeRequired {
		t.Fatal("fresh password must not demand a change")
	}
	if result.Account.PasswordHash != "" {
		t.Fatal("login result must not expose the hash")
	}

	claims, err := env.service.ParseAccessToken(result.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.AccountID != seeded.ID {
		t.Fatalf("token account = %q, want %q", claims.AccountID, seeded.ID)
	}

	stored := env.storedAccount(t, seeded.ID)
	if stored.LastLogin == nil || !stored.LastLogin.Equal(env.now) {
		t.Fatal("last login should be stamped")
	}
}

func TestAuthenticateUnknownUsername(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Authenticate(context.Background(), "ghost", "Whatever1!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seedAccount(t, "ada", "ada@example.com", "Correct1!")
	if err := env.store.SetActive(context.Background(), seeded.ID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	_, err := env.service.Authenticate(context.Background(), "ada", "Correct1!")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAuthenticateLockoutAfterFiveFailures(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seedAccount(t, "ada", "ada@example.com", "Correct1!")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := env.service.Authenticate(ctx, "ada", "Wrong0!pw"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	stored := env.storedAccount(t, seeded.ID)
	if stored.FailedLoginAttempts != 4 {
		t.Fatalf("expected 4 recorded failures, got %d", stored.FailedLoginAttempts)
	}
	if stored.LockExpiresAt != nil {
		t.Fatal("no lock expected after 4 failures")
	}

	if _, err := env.service.Authenticate(ctx, "ada", "Wrong0!pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("fifth failure: expected ErrInvalidCredentials, got %v", err)
	}

	stored = env.storedAccount(t, seeded.ID)
	if stored.LockExpiresAt == nil {
		t.Fatal("fifth failure must engage the lock")
	}
	if got, want := *stored.LockExpiresAt, env.now.Add(15*time.Minute); !got.Equal(want) {
		t.Fatalf("lock expiry = %v, want %v", got, want)
	}

	if len(env.events.locked) != 1 {
		t.Fatalf("expected 1 account locked event, got %d", len(env.events.locked))
	}

	// The correct password is rejected while the lock is active.
	if _, err := env.service.Authenticate(ctx, "ada", "Correct1!"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked during the window, got %v", err)
	}

	// Attempts during the lock neither extend it nor accumulate.
	stored = env.storedAccount(t, seeded.ID)
	if stored.FailedLoginAttempts != 0 {
		t.Fatalf("counter should stay 0 during the lock, got %d", stored.FailedLoginAttempts)
	}

	env.advance(15*time.Minute + time.Second)

	result, err := env.service.Authenticate(ctx, "ada", "Correct1!")
	if err != nil {
		t.Fatalf("post-expiry login should succeed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token after the lock expired")
	}

	stored = env.storedAccount(t, seeded.ID)
	if stored.FailedLoginAttempts != 0 || stored.LockExpiresAt != nil {
		t.Fatal("successful login must clear the lockout state")
	}
}

func TestAuthenticateSurfacesFailedAttemptWriteError(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "ada", "ada@example.com", "Correct1!")

	storeErr := errors.New("connection reset by peer")
	env.service.accounts = &brokenTxStore{fakeAccountStore: env.store, txErr: storeErr}

	_, err := env.service.Authenticate(context.Background(), "ada", "Wrong0!pw")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("an unpersisted failure must not read as a credential mismatch")
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected the store error to surface, got %v", err)
	}
}

func TestAuthenticateSuccessResetsCounter(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seedAccount(t, "ada", "ada@example.com", "Correct1!")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = env.service.Authenticate(ctx, "ada", "Wrong0!pw")
	}

	if _, err := env.service.Authenticate(ctx, "ada", "Correct1!"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	stored := env.storedAccount(t, seeded.ID)
	if stored.FailedLoginAttempts != 0 {
		t.Fatalf("success must reset the counter, got %d", stored.FailedLoginAttempts)
	}

	// The next run of failures starts from zero again.
	for i := 0; i < 4; i++ {
		_, _ = env.service.Authenticate(ctx, "ada", "Wrong0!pw")
	}
	stored = env.storedAccount(t, seeded.ID)
	if stored.LockExpiresAt != nil {
		t.Fatal("4 failures after a success must not lock")
	}
}

func TestAuthenticateFlagsExpiredPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "ada", "ada@example.com", "Correct1!")

	env.advance(91 * 24 * time.Hour)

	result, err := env.service.Authenticate(context.Background(), "ada", "Correct1!")
	if err != nil {
		t.Fatalf("expired password must not block login: %v", err)
	}
	if !result.PasswordChangeRequired {
		t.Fatal("login with an aged password must carry the change-required flag")
	}
}

func TestUnlockClearsActiveLock(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seedAccount(t, "ada", "ada@example.com", "Correct1!")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = env.service.Authenticate(ctx, "ada", "Wrong0!pw")
	}
	if env.storedAccount(t, seeded.ID).LockExpiresAt == nil {
		t.Fatal("expected an active lock")
	}

	if err := env.service.Unlock(ctx, seeded.ID); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	if _, err := env.service.Authenticate(ctx, "ada", "Correct1!"); err != nil {
		t.Fatalf("login after unlock: %v", err)
	}
}

func TestRegisterAccountSeedsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.service.RegisterAccount(ctx, RegisterAccountInput{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "Correct1!",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if account.Email != "ada@example.com" {
		t.Fatalf("email should be normalized, got %q", account.Email)
	}
	if account.PasswordHash != "" {
		t.Fatal("registration response must not expose the hash")
	}
	if env.store.historyCount(account.ID) != 1 {
		t.Fatal("registration must seed one history entry")
	}
	if len(env.events.registered) != 1 {
		t.Fatalf("expected 1 registered event, got %d", len(env.events.registered))
	}

	_, err = env.service.RegisterAccount(ctx, RegisterAccountInput{
		Username: "ada",
		Email:    "other@example.com",
		Password: "Correct1!",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate username: expected ErrAccountExists, got %v", err)
	}
}
