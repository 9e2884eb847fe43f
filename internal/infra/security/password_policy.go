package security

import (
	"fmt"
	"time"

	"github.com/Crekold/vet-backend-sub000/internal/core/port"
)

const (
	// DefaultMinPasswordLength is the minimum accepted password length.
	DefaultMinPasswordLength = 8

	// SpecialCharacterSet is the fixed set a password must draw at least one
	// character from to satisfy the complexity rule.
	SpecialCharacterSet = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|~`"
)

// PasswordPolicyConfig tunes the complexity and expiry rules.
type PasswordPolicyConfig struct {
	MinLength int
	// MinStrengthScore, when positive, additionally requires the given
	// zxcvbn score (0-4). Zero disables strength scoring.
	MinStrengthScore int
	// MaxAge bounds how long a password stays fresh. Expiry is advisory:
	// it flags that a change is due but never blocks authentication.
	MaxAge time.Duration
}

// DefaultPasswordPolicyConfig returns the built-in policy parameters.
func DefaultPasswordPolicyConfig() PasswordPolicyConfig {
	return PasswordPolicyConfig{
		MinLength: DefaultMinPasswordLength,
		MaxAge:    90 * 24 * time.Hour,
	}
}

// PasswordPolicy validates candidate passwords: a pure complexity rule, a
// history-reuse rule, and an advisory expiry rule.
type PasswordPolicy struct {
	cfg       PasswordPolicyConfig
	validator *PasswordValidator
}

// NewPasswordPolicy builds a policy from the supplied configuration.
func NewPasswordPolicy(cfg PasswordPolicyConfig) *PasswordPolicy {
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinPasswordLength
	}

	rules := []PasswordRule{
		MinLengthRule(cfg.MinLength),
		RequireLowercaseRule(),
		RequireUppercaseRule(),
		RequireDigitRule(),
		RequireSpecialRule(SpecialCharacterSet),
	}
	if cfg.MinStrengthScore > 0 {
		rules = append(rules, RequirePasswordStrengthRule(cfg.MinStrengthScore))
	}

	return &PasswordPolicy{
		cfg:       cfg,
		validator: NewPasswordValidator(rules...),
	}
}

// DefaultPasswordPolicy returns a policy with the built-in parameters.
func DefaultPasswordPolicy() *PasswordPolicy {
	return NewPasswordPolicy(DefaultPasswordPolicyConfig())
}

// ValidateComplexity checks the candidate against the fixed complexity rules.
// It is a pure function of its input: no account state is consulted.
func (p *PasswordPolicy) ValidateComplexity(candidate string) error {
	if p == nil || p.validator == nil {
		return fmt.Errorf("password policy not configured")
	}
	return p.validator.Validate(candidate)
}

// ValidateNotReused fails when the candidate, hashed with the storage scheme,
// matches any retained history hash. Comparison always goes through the
// hasher's constant-time Verify, never plaintext equality.
func (p *PasswordPolicy) ValidateNotReused(candidate string, historyHashes []string, hasher port.PasswordHasher) error {
	if hasher == nil {
		return fmt.Errorf("password hasher is required")
	}

	for _, hash := range historyHashes {
		reused, err := hasher.Verify(candidate, hash)
		if err != nil {
			return fmt.Errorf("compare password history: %w", err)
		}
		if reused {
			return &PasswordValidationError{
				Code:    "reused",
				Message: "password was used recently and cannot be reused",
			}
		}
	}

	return nil
}

// Expired reports whether the password is older than the configured maximum
// age. Callers surface this as a change-required flag; it never blocks login.
func (p *PasswordPolicy) Expired(changedAt, now time.Time) bool {
	if p == nil || p.cfg.MaxAge <= 0 {
		return false
	}
	return now.Sub(changedAt) > p.cfg.MaxAge
}
