package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/core/port"
)

// StubPublisher logs events instead of producing them. Used when no brokers
// are configured, typically in development.
type StubPublisher struct {
	log *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

// NewStubPublisher returns a publisher that only logs.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{log: log}
}

// PublishAccountRegistered logs the event.
func (s *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	s.log.Info("event (stub)",
		zap.String("event_type", TopicAccountRegistered),
		zap.String("account_id", event.AccountID),
	)
	return nil
}

// PublishPasswordChanged logs the event.
func (s *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	s.log.Info("event (stub)",
		zap.String("event_type", TopicPasswordChanged),
		zap.String("account_id", event.AccountID),
		zap.String("source", event.Source),
	)
	return nil
}

// PublishPasswordResetRequested logs the event.
func (s *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	s.log.Info("event (stub)",
		zap.String("event_type", TopicPasswordResetRequested),
		zap.String("account_id", event.AccountID),
		zap.String("destination", event.MaskedDestination),
	)
	return nil
}

// PublishAccountLocked logs the event.
func (s *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	s.log.Info("event (stub)",
		zap.String("event_type", TopicAccountLocked),
		zap.String("account_id", event.AccountID),
		zap.Duration("locked_for", event.LockedFor),
	)
	return nil
}
