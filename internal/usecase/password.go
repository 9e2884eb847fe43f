package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/core/port"
	"github.com/Crekold/vet-backend-sub000/internal/infra/security"
	"github.com/Crekold/vet-backend-sub000/internal/repository"
)

// ChangePassword replaces the account's password after the complexity and
// history-reuse checks pass. The live hash swap, the history append, and the
// history trim commit atomically.
func (s *CredentialService) ChangePassword(ctx context.Context, accountID, newPassword string) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive {
		return ErrAccountInactive
	}

	return s.applyNewPassword(ctx, account, newPassword, "change", "")
}

// applyNewPassword runs the shared tail of every password rotation: policy
// checks, hashing, and the atomic swap. A non-empty consumeTokenHash marks a
// reset redemption: under the row lock the stored digest must still equal it,
// and it is cleared in the same transaction, which is what makes tokens
// single-use even under concurrent redemptions.
func (s *CredentialService) applyNewPassword(ctx context.Context, account *domain.Account, newPassword, source, consumeTokenHash string) error {
	if err := s.policy.ValidateComplexity(newPassword); err != nil {
		return err
	}

	history, err := s.accounts.ListPasswordHistory(ctx, account.ID, s.historyDepth())
	if err != nil {
		return fmt.Errorf("list password history: %w", err)
	}

	hashes := make([]string, 0, len(history)+1)
	seenLive := false
	for _, entry := range history {
		hashes = append(hashes, entry.PasswordHash)
		if entry.PasswordHash == account.PasswordHash {
			seenLive = true
		}
	}
	// The live hash is mirrored as the newest history entry, but guard
	// against drift: the current password must never be reusable.
	if !seenLive {
		hashes = append(hashes, account.PasswordHash)
	}

	if err := s.policy.ValidateNotReused(newPassword, hashes, s.hasher); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	err = s.accounts.WithinTx(ctx, func(repo port.AccountRepository) error {
		if consumeTokenHash != "" {
			current, err := repo.GetForUpdate(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("lock account row: %w", err)
			}
			// A concurrent redemption that committed first already
			// cleared or replaced the digest; this one loses.
			if current.ResetTokenHash == nil || *current.ResetTokenHash != consumeTokenHash {
				return ErrInvalidResetToken
			}
		}
		if err := repo.UpdatePassword(ctx, account.ID, newHash, security.PasswordAlgo, now); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := repo.AddPasswordHistory(ctx, domain.PasswordHistoryEntry{
			AccountID:    account.ID,
			PasswordHash: newHash,
			SetAt:        now,
		}); err != nil {
			return fmt.Errorf("append password history: %w", err)
		}
		if err := repo.TrimPasswordHistory(ctx, account.ID, s.historyDepth()); err != nil {
			return fmt.Errorf("trim password history: %w", err)
		}
		if consumeTokenHash != "" {
			if err := repo.ClearResetToken(ctx, account.ID); err != nil {
				return fmt.Errorf("consume reset token: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			ChangedAt: now,
			Source:    source,
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.logger.Error("publish password changed event", zap.Error(err))
		}
	}

	s.logger.Info("password changed",
		zap.String("account_id", account.ID),
		zap.String("source", source),
	)

	return nil
}
