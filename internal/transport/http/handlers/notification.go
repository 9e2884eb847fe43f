package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Crekold/vet-backend-sub000/internal/infra/logger"
	"github.com/Crekold/vet-backend-sub000/internal/usecase"
)

// LoggingResetNotifier records reset-token issuance for observability without
// delivering anything. The destination is masked; the raw token is logged only
// so operators can complete flows in environments without a mail gateway.
type LoggingResetNotifier struct {
	log      *zap.Logger
	devToken bool
}

var _ usecase.ResetNotifier = (*LoggingResetNotifier)(nil)

// NewLoggingResetNotifier constructs a notifier backed by structured logging.
// devToken controls whether the raw token appears in the log line.
func NewLoggingResetNotifier(log *zap.Logger, devToken bool) *LoggingResetNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingResetNotifier{log: log, devToken: devToken}
}

// SendPasswordReset logs the dispatch.
func (n *LoggingResetNotifier) SendPasswordReset(_ context.Context, email, token string, expiresAt time.Time) error {
	fields := []zap.Field{
		zap.String("contact", logger.MaskEmail(email)),
		zap.Time("expires_at", expiresAt),
	}
	if n.devToken {
		fields = append(fields, zap.String("dev_token", token))
	}

	n.log.Info("dispatch password reset", fields...)
	return nil
}
