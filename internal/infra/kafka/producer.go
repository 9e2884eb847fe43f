package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Crekold/vet-backend-sub000/internal/core/domain"
	"github.com/Crekold/vet-backend-sub000/internal/core/port"
	"github.com/Crekold/vet-backend-sub000/internal/infra/config"
)

// Producer publishes credential-lifecycle events to Kafka using a synchronous
// sarama producer.
type Producer struct {
	producer    sarama.SyncProducer
	topicPrefix string
	log         *zap.Logger
}

var _ port.EventPublisher = (*Producer)(nil)

// NewProducer connects a sync producer to the configured brokers.
func NewProducer(cfg config.KafkaSettings, log *zap.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Idempotent = true
	saramaCfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		producer:    producer,
		topicPrefix: cfg.TopicPrefix,
		log:         log,
	}, nil
}

// Close shuts down the underlying producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}

// PublishAccountRegistered emits a credential.account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	return p.publish(ctx, TopicAccountRegistered, event.AccountID, Envelope{
		EventID:    event.EventID,
		EventType:  TopicAccountRegistered,
		OccurredAt: event.RegisteredAt,
		Payload: accountRegisteredPayload{
			AccountID:    event.AccountID,
			Username:     event.Username,
			Email:        event.Email,
			RegisteredAt: event.RegisteredAt,
		},
		Metadata: event.Metadata,
	})
}

// PublishPasswordChanged emits a credential.password.changed event.
func (p *Producer) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return p.publish(ctx, TopicPasswordChanged, event.AccountID, Envelope{
		EventID:    event.EventID,
		EventType:  TopicPasswordChanged,
		OccurredAt: event.ChangedAt,
		Payload: passwordChangedPayload{
			AccountID: event.AccountID,
			ChangedAt: event.ChangedAt,
			Source:    event.Source,
		},
		Metadata: event.Metadata,
	})
}

// PublishPasswordResetRequested emits a credential.password.reset_requested
// event. The destination is masked before it reaches this layer.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	return p.publish(ctx, TopicPasswordResetRequested, event.AccountID, Envelope{
		EventID:    event.EventID,
		EventType:  TopicPasswordResetRequested,
		OccurredAt: event.RequestedAt,
		Payload: passwordResetRequestedPayload{
			AccountID:         event.AccountID,
			RequestID:         event.RequestID,
			RequestedAt:       event.RequestedAt,
			MaskedDestination: event.MaskedDestination,
			ExpiresAt:         event.ExpiresAt,
		},
		Metadata: event.Metadata,
	})
}

// PublishAccountLocked emits a credential.account.locked event.
func (p *Producer) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	return p.publish(ctx, TopicAccountLocked, event.AccountID, Envelope{
		EventID:    event.EventID,
		EventType:  TopicAccountLocked,
		OccurredAt: event.LockedAt,
		Payload: accountLockedPayload{
			AccountID:     event.AccountID,
			LockedAt:      event.LockedAt,
			LockedSeconds: int64(event.LockedFor / time.Second),
		},
		Metadata: event.Metadata,
	})
}

func (p *Producer) publish(ctx context.Context, topicSuffix, key string, envelope Envelope) error {
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		envelope.TraceID = span.TraceID().String()
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", envelope.EventType, err)
	}

	topic := envelope.EventType
	if p.topicPrefix != "" {
		topic = p.topicPrefix + "." + topicSuffix
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send event %s: %w", envelope.EventType, err)
	}

	p.log.Debug("event published",
		zap.String("topic", topic),
		zap.String("event_id", envelope.EventID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}
