package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/infra/logger"
	"github.com/Crekold/vet-backend-sub000/internal/infra/security"
	"github.com/Crekold/vet-backend-sub000/internal/repository"
)

// RequestPasswordReset issues a single-use reset token for the account behind
// the email and hands the raw token to the notifier. The outcome is identical
// for known and unknown addresses: callers learn nothing about registration
// status, and failures past the lookup are swallowed into logs.
func (s *CredentialService) RequestPasswordReset(ctx context.Context, email string) error {
	// Addresses are stored lowercased at registration; normalize the same
	// way so casing differences cannot silently skip the lookup.
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("password reset requested for unknown address",
				zap.String("email", logger.MaskEmail(email)),
			)
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive {
		s.logger.Info("password reset requested for inactive account",
			zap.String("account_id", account.ID),
		)
		return nil
	}

	rawToken, err := security.GenerateSecureToken(security.ResetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now()
	token := domain.ResetTokenState{
		TokenHash: security.HashToken(rawToken),
		ExpiresAt: now.Add(s.resetTokenTTL()),
	}

	// Overwrites any outstanding token: at most one is valid per account.
	if err := s.accounts.SetResetToken(ctx, account.ID, token); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.metrics.ResetCounter().WithLabelValues("requested").Inc()

	if s.events != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:           uuid.NewString(),
			AccountID:         account.ID,
			RequestID:         uuid.NewString(),
			RequestedAt:       now,
			MaskedDestination: logger.MaskEmail(account.Email),
			ExpiresAt:         token.ExpiresAt,
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Error("publish reset requested event", zap.Error(err))
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, account.Email, rawToken, token.ExpiresAt); err != nil {
			s.logger.Error("deliver reset token",
				zap.Error(err),
				zap.String("account_id", account.ID),
			)
		}
	}

	return nil
}

// CompletePasswordReset redeems a reset token and rotates the password. The
// token is consumed in the same transaction as the password swap, so a second
// redemption of the same token always fails.
func (s *CredentialService) CompletePasswordReset(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return ErrInvalidResetToken
	}

	tokenHash := security.HashToken(rawToken)
	account, err := s.accounts.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.ResetCounter().WithLabelValues("rejected").Inc()
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	token, ok := account.ResetToken()
	if !ok {
		s.metrics.ResetCounter().WithLabelValues("rejected").Inc()
		return ErrInvalidResetToken
	}

	if token.Expired(s.now()) {
		// Expired tokens are cleared on sight so the row does not carry
		// stale digests indefinitely.
		if err := s.accounts.ClearResetToken(ctx, account.ID); err != nil {
			s.logger.Error("clear expired reset token", zap.Error(err), zap.String("account_id", account.ID))
		}
		s.metrics.ResetCounter().WithLabelValues("rejected").Inc()
		return ErrExpiredResetToken
	}

	if !account.IsActive {
		s.metrics.ResetCounter().WithLabelValues("rejected").Inc()
		return ErrInvalidResetToken
	}

	if err := s.applyNewPassword(ctx, account, newPassword, "reset", tokenHash); err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			s.metrics.ResetCounter().WithLabelValues("rejected").Inc()
		}
		return err
	}

	s.metrics.ResetCounter().WithLabelValues("completed").Inc()
	return nil
}
