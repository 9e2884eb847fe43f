package port

import (
	"context"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
)

// EventPublisher publishes credential-lifecycle events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
}
