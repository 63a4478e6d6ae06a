package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates a malformed trace line.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrBadID indicates an op id outside the header's id range.
	ErrBadID = errors.New("trace: block id out of range")

	// ErrOpCount indicates the op count does not match the header.
	ErrOpCount = errors.New("trace: op count mismatch")

	// ErrValidation is wrapped by every *ReplayError.
	ErrValidation = errors.New("trace: replay validation failed")
)

// Replay failure kinds.
const (
	KindNull    = "null"
	KindAlign   = "alignment"
	KindBounds  = "bounds"
	KindOverlap = "overlap"
	KindPayload = "payload"
	KindCheck   = "check"
	KindUnknown = "unknown-id"
)

// ReplayError reports the op at which a replay went wrong.
type ReplayError struct {
	Trace string
	Index int // position in Ops
	Line  int // source line, 0 if unknown
	Op    Op
	Kind  string
	Err   error // underlying cause, may be nil
}

func (e *ReplayError) Error() string {
	msg := fmt.Sprintf("%s: op %d (line %d, %s): %s", e.Trace, e.Index, e.Line, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns both ErrValidation and the cause.
func (e *ReplayError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}
