package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Crekold/vet-backend-sub000/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	lockoutCounter prometheus.Counter
	resetCounter   *prometheus.CounterVec
}

// Attach configures telemetry exporters and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	lockoutCounter := promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "credential",
		Name:      "account_lockouts_total",
		Help:      "Total number of accounts locked by the failed-login threshold",
	})

	resetCounter := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "credential",
		Name:      "password_resets_total",
		Help:      "Password reset operations by stage",
	}, []string{"stage"})

	return &Provider{
		lockoutCounter: lockoutCounter,
		resetCounter:   resetCounter,
	}, nil
}

// LockoutCounter exposes the account lockout metric.
func (p *Provider) LockoutCounter() prometheus.Counter {
	if p == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{})
	}
	return p.lockoutCounter
}

// ResetCounter exposes the password reset metric, labelled by stage
// ("requested", "completed", "rejected").
func (p *Provider) ResetCounter() *prometheus.CounterVec {
	if p == nil {
		return prometheus.NewCounterVec(prometheus.CounterOpts{}, []string{"stage"})
	}
	return p.resetCounter
}
