package logging

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level, false); err != nil {
			t.Fatalf("%s: unexpected error: %v", level, err)
		}
	}

	logger, err := New("debug", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Fatal("expected debug to be enabled")
	}

	if _, err := New("verbose", false); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
