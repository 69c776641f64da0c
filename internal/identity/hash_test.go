package identity

import "testing"

func TestHashIsDeterministic(t *testing.T) {
	h := NewHasher("pepper-a", "pepper-b")

	first := h.Device("device-123")
	second := h.Device("device-123")
	if first != second {
		t.Fatalf("same input hashed differently: %s vs %s", first, second)
	}
	if first == "device-123" {
		t.Fatalf("hash must not echo the input")
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestPepperChangesHash(t *testing.T) {
	a := NewHasher("pepper-a", "")
	b := NewHasher("pepper-b", "")

	if a.Device("device-123") == b.Device("device-123") {
		t.Fatalf("different peppers produced identical hashes")
	}
}

func TestEmailNormalization(t *testing.T) {
	h := NewHasher("", "email-pepper")

	if h.Email("Alice@Example.com ") != h.Email("alice@example.com") {
		t.Fatalf("email hash should normalize case and whitespace")
	}
	if h.Email("alice@example.com") == h.Device("alice@example.com") {
		t.Fatalf("device and email peppers must be independent")
	}
}

func TestShortHash(t *testing.T) {
	h := NewHasher("p", "p")
	full := h.Device("x")
	if got := Short(full); got != full[:8] {
		t.Fatalf("short hash = %q, want first 8 chars", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Fatalf("short hash of short input = %q", got)
	}
}
