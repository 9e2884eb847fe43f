package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey carries the per-request correlation id on a context.
type RequestIDKey struct{}

// New builds the service logger. Production emits JSON at info level; any
// other environment gets a colored console encoder with debug enabled.
func New(env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if env != "production" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return cfg.Build()
}

// RequestIDFrom extracts the correlation id stored by the request-id
// middleware, or "" when none is present.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey{}).(string)
	return id
}

const masked = "***"

// MaskEmail redacts an address down to at most three leading characters plus
// the domain. Reset-request logs must never carry the full destination.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" || domain == "" {
		return masked
	}

	if len(local) > 3 {
		local = local[:3]
	}
	return local + masked + "@" + domain
}

// MaskIP keeps only a network prefix: the first two octets of an IPv4
// address, the first four groups of an IPv6 address.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	if octets := strings.Split(ip, "."); len(octets) == 4 {
		return octets[0] + "." + octets[1] + ".*.*"
	}
	if groups := strings.Split(ip, ":"); len(groups) >= 4 {
		return strings.Join(groups[:4], ":") + ":*:*:*:*"
	}

	return masked
}
