package spritetext

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStateError_Message(t *testing.T) {
	err := &StateError{Op: "Draw", State: StateInitialized, Want: StateDrawing}
	msg := err.Error()
	for _, part := range []string{"Draw", "DRAWING", "INITIALIZED"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error %q missing %q", msg, part)
		}
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Field: "StrikeWidth", Reason: "must be a positive power of two"}
	msg := err.Error()
	if !strings.Contains(msg, "StrikeWidth") || !strings.Contains(msg, "power of two") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestSentinelWrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: extra detail", ErrOutOfSpace)
	if !errors.Is(wrapped, ErrOutOfSpace) {
		t.Error("wrapped ErrOutOfSpace not matched by errors.Is")
	}
	if errors.Is(wrapped, ErrNoSuchLabel) {
		t.Error("wrapped ErrOutOfSpace matched wrong sentinel")
	}
}
