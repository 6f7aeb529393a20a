package identity

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	valid := []string{"abc", "alice", "user_42", "ABC123", strings.Repeat("x", 30)}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{"", "ab", strings.Repeat("x", 31), "has space", "dash-ed", "dot.ted", "émile"}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) = nil, want error", u)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"alice@x.com", "a.b+tag@example.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", e, err)
		}
	}

	invalid := []string{"", "no-at-sign", "a@", "Alice <alice@x.com>"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", e)
		}
	}
}

func TestValidateFullName(t *testing.T) {
	t.Parallel()

	if err := ValidateFullName(nil); err != nil {
		t.Fatalf("nil full name must be valid: %v", err)
	}

	ok := "Alice Example"
	if err := ValidateFullName(&ok); err != nil {
		t.Fatalf("ValidateFullName(%q) = %v, want nil", ok, err)
	}

	long := strings.Repeat("x", 101)
	if err := ValidateFullName(&long); err == nil {
		t.Fatalf("expected error for over-long full name")
	}
}
