package kafka

import "time"

// Topic suffixes appended to the configured topic prefix.
const (
	TopicAccountRegistered      = "account.registered"
	TopicPasswordChanged        = "password.changed"
	TopicPasswordResetRequested = "password.reset_requested"
	TopicAccountLocked          = "account.locked"
)

// Envelope is the wire format shared by every published event.
type Envelope struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	OccurredAt time.Time      `json:"occurred_at"`
	TraceID    string         `json:"trace_id,omitempty"`
	Payload    any            `json:"payload"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type accountRegisteredPayload struct {
	AccountID    string    `json:"account_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

type passwordChangedPayload struct {
	AccountID string    `json:"account_id"`
	ChangedAt time.Time `json:"changed_at"`
	Source    string    `json:"source"`
}

type passwordResetRequestedPayload struct {
	AccountID         string    `json:"account_id"`
	RequestID         string    `json:"request_id"`
	RequestedAt       time.Time `json:"requested_at"`
	MaskedDestination string    `json:"masked_destination"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type accountLockedPayload struct {
	AccountID     string    `json:"account_id"`
	LockedAt      time.Time `json:"locked_at"`
	LockedSeconds int64     `json:"locked_seconds"`
}
