package clipboard

import (
	"errors"
	"testing"
)

func TestWriteBeforeInit(t *testing.T) {
	if initialized {
		t.Skip("clipboard already initialized")
	}
	if err := Write("x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestWriteRead(t *testing.T) {
	// Requires a display server; skip when the clipboard cannot initialize.
	if err := Init(); err != nil {
		t.Skipf("clipboard unavailable (expected in headless environment): %v", err)
	}
	if err := (System{}).Write("42"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != "42" {
		t.Errorf("Expected clipboard %q, got %q", "42", got)
	}
}
