package logging

import "testing"

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "test"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected nop logger")
	}
}
