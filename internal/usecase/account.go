package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/core/port"
	"github.com/Crekold/vet-backend-sub000/internal/infra/security"
	"github.com/Crekold/vet-backend-sub000/internal/repository"
)

// RegisterAccountInput captures the fields required to create an account.
type RegisterAccountInput struct {
	Username string
	Email    string
	Password string
}

// RegisterAccount creates an account with an active status and seeds the
// password history with the initial hash.
func (s *CredentialService) RegisterAccount(ctx context.Context, input RegisterAccountInput) (*domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}

	if err := s.policy.ValidateComplexity(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	account := domain.Account{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		PasswordAlgo:      security.PasswordAlgo,
		IsActive:          true,
		PasswordChangedAt: now,
		RegisteredAt:      now,
	}

	err = s.accounts.WithinTx(ctx, func(repo port.AccountRepository) error {
		if err := repo.Create(ctx, account); err != nil {
			return err
		}
		return repo.AddPasswordHistory(ctx, domain.PasswordHistoryEntry{
			AccountID:    account.ID,
			PasswordHash: hash,
			SetAt:        now,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if s.events != nil {
		event := domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			AccountID:    account.ID,
			Username:     account.Username,
			Email:        account.Email,
			RegisteredAt: now,
		}
		if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
			s.logger.Error("publish account registered event", zap.Error(err))
		}
	}

	account.PasswordHash = ""
	return &account, nil
}

// GetAccount fetches an account by id with secrets stripped.
func (s *CredentialService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	sanitized := *account
	sanitized.PasswordHash = ""
	sanitized.ResetTokenHash = nil
	return &sanitized, nil
}

// SetAccountActive enables or disables an account. Disabling does not touch
// lockout state; a disabled account stays rejected regardless of the counter.
func (s *CredentialService) SetAccountActive(ctx context.Context, accountID string, active bool) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	if err := s.accounts.SetActive(ctx, accountID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("set account active: %w", err)
	}

	s.logger.Info("account active flag updated",
		zap.String("account_id", accountID),
		zap.Bool("active", active),
	)

	return nil
}
