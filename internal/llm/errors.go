package llm

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no LLM client is configured.
var ErrUnavailable = errors.New("llm: capability unavailable")

// CapabilityError marks a failure of the generative capability itself:
// timeouts, provider errors, or output that doesn't parse into the
// requested schema. Callers fall back to deterministic heuristics on a
// CapabilityError; anything else is a programming error and propagates.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// IsCapabilityFailure reports whether err is a generative-capability
// failure rather than a programming error.
func IsCapabilityFailure(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}

func capabilityErr(op string, err error) error {
	return &CapabilityError{Op: op, Err: err}
}
