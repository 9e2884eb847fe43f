package security

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	h, err := NewHasher(Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return h
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !strings.HasPrefix(encoded, PasswordAlgo+"$") {
		t.Fatalf("encoded hash should start with algorithm identifier, got %q", encoded)
	}

	ok, err := h.Verify("Sup3r$ecret", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password should verify")
	}

	ok, err = h.Verify("Wr0ng$ecret", encoded)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := testHasher(t)

	first, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if first == second {
		t.Fatal("two hashes of the same password must differ by salt")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := testHasher(t)

	cases := []string{
		"not-a-hash",
		"bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"argon2id$v=19$m=8192,t=1$c2FsdA$aGFzaA",
	}

	for _, encoded := range cases {
		if _, err := h.Verify("whatever", encoded); err == nil {
			t.Errorf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	h := testHasher(t)

	if ok, err := h.Verify("", "anything"); err != nil || ok {
		t.Fatal("empty password should fail verification without error")
	}
	if ok, err := h.Verify("password", ""); err != nil || ok {
		t.Fatal("empty hash should fail verification without error")
	}
}

func TestNewHasherRejectsWeakParameters(t *testing.T) {
	_, err := NewHasher(Argon2Config{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err == nil {
		t.Fatal("expected error for memory below the floor")
	}
}

func TestGenerateSecureTokenUniqueness(t *testing.T) {
	first, err := GenerateSecureToken(ResetTokenBytes)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := GenerateSecureToken(ResetTokenBytes)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if first == second {
		t.Fatal("two generated tokens must differ")
	}
	if HashToken(first) == HashToken(second) {
		t.Fatal("token digests must differ")
	}
	if HashToken(first) != HashToken(first) {
		t.Fatal("hashing must be deterministic")
	}
}
