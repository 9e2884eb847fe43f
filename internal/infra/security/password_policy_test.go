package security

import (
	"errors"
	"testing"
	"time"
)

func TestValidateComplexityAcceptsConformingPasswords(t *testing.T) {
	policy := DefaultPasswordPolicy()

	for _, password := range []string{
		"Password1!",
		"Tr0ub4dor&3",
		"aB3{}longer-password",
	} {
		if err := policy.ValidateComplexity(password); err != nil {
			t.Errorf("password %q should pass: %v", password, err)
		}
	}
}

func TestValidateComplexityRejectsByRule(t *testing.T) {
	policy := DefaultPasswordPolicy()

	cases := []struct {
		password string
		code     string
	}{
		{"Ab1!xyz", "min_length"},
		{"PASSWORD1!", "lowercase"},
		{"password1!", "uppercase"},
		{"Password!!", "digit"},
		{"Password11", "special"},
	}

	for _, tc := range cases {
		err := policy.ValidateComplexity(tc.password)
		if err == nil {
			t.Errorf("password %q should fail", tc.password)
			continue
		}

		var violation *PasswordValidationError
		if !errors.As(err, &violation) {
			t.Errorf("password %q: expected PasswordValidationError, got %T", tc.password, err)
			continue
		}
		if violation.Code != tc.code {
			t.Errorf("password %q: code = %q, want %q", tc.password, violation.Code, tc.code)
		}
	}
}

func TestValidateComplexityIsStateless(t *testing.T) {
	policy := DefaultPasswordPolicy()

	// Same input, same verdict, regardless of call order.
	for i := 0; i < 3; i++ {
		if err := policy.ValidateComplexity("Password1!"); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if err := policy.ValidateComplexity("short"); err == nil {
			t.Fatalf("iteration %d: weak password slipped through", i)
		}
	}
}

func TestValidateNotReused(t *testing.T) {
	policy := DefaultPasswordPolicy()
	hasher := testHasher(t)

	oldHash, err := hasher.Hash("OldPassword1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	otherHash, err := hasher.Hash("OtherPassword2@")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	history := []string{oldHash, otherHash}

	err = policy.ValidateNotReused("OldPassword1!", history, hasher)
	if err == nil {
		t.Fatal("reused password must be rejected")
	}
	var violation *PasswordValidationError
	if !errors.As(err, &violation) || violation.Code != "reused" {
		t.Fatalf("expected reused violation, got %v", err)
	}

	if err := policy.ValidateNotReused("FreshPassword3#", history, hasher); err != nil {
		t.Fatalf("fresh password should pass: %v", err)
	}

	if err := policy.ValidateNotReused("Anything1!", nil, hasher); err != nil {
		t.Fatalf("empty history should pass: %v", err)
	}
}

func TestExpiredIsAdvisoryBoundary(t *testing.T) {
	policy := NewPasswordPolicy(PasswordPolicyConfig{
		MinLength: 8,
		MaxAge:    90 * 24 * time.Hour,
	})

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if policy.Expired(now.Add(-89*24*time.Hour), now) {
		t.Fatal("password younger than the maximum age is not expired")
	}
	if policy.Expired(now.Add(-90*24*time.Hour), now) {
		t.Fatal("password exactly at the maximum age is not yet expired")
	}
	if !policy.Expired(now.Add(-90*24*time.Hour-time.Second), now) {
		t.Fatal("password older than the maximum age is expired")
	}
}

func TestExpiredDisabledWithZeroMaxAge(t *testing.T) {
	policy := NewPasswordPolicy(PasswordPolicyConfig{MinLength: 8})

	ancient := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if policy.Expired(ancient, time.Now()) {
		t.Fatal("zero max age disables expiry")
	}
}
