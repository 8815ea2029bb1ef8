package spritetext

import (
	"errors"
	"fmt"
)

// Sentinel errors for the spritetext package.
var (
	// ErrOutOfSpace is returned by Add when a label cannot fit in the
	// remaining strike area. The LabelMaker is left exactly as it was
	// before the call.
	ErrOutOfSpace = errors.New("spritetext: out of strike space")

	// ErrNoSuchLabel is returned when a label id does not refer to a
	// label added during the current adding cycle.
	ErrNoSuchLabel = errors.New("spritetext: no such label")
)

// StateError reports an operation called outside its required lifecycle
// state. It is a programmer-contract violation: the caller must restore
// correct sequencing, the operation itself performed no mutation.
type StateError struct {
	// Op is the operation that was attempted, e.g. "Add".
	Op string

	// State is the state the LabelMaker was in.
	State State

	// Want is the state the operation requires.
	Want State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("spritetext: %s requires state %s, called in %s", e.Op, e.Want, e.State)
}

// ConfigError reports an invalid LabelMaker configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "spritetext: invalid config." + e.Field + ": " + e.Reason
}
