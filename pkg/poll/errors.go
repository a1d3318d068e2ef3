package poll

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation matches every ProtocolError via errors.Is.
var ErrProtocolViolation = errors.New("protocol violation")

// ProtocolCode categorizes protocol violations.
type ProtocolCode string

const (
	// CodeGrantExceeded indicates more items were accepted than the last
	// readiness check granted.
	CodeGrantExceeded ProtocolCode = "GRANT_EXCEEDED"

	// CodeAcceptBeforeReady indicates Accept was called without a preceding
	// Ready outcome.
	CodeAcceptBeforeReady ProtocolCode = "ACCEPT_BEFORE_READY"

	// CodeCapacityExceeded indicates an item was offered to a bounded
	// resource that had no room left for it.
	CodeCapacityExceeded ProtocolCode = "CAPACITY_EXCEEDED"

	// CodeScriptExhausted indicates a strict script ran out of steps.
	CodeScriptExhausted ProtocolCode = "SCRIPT_EXHAUSTED"

	// CodeClosed indicates an operation on a closed or released resource.
	CodeClosed ProtocolCode = "CLOSED"
)

// ProtocolError reports misuse of the poll protocol. It fails fast and is
// never corrected silently.
type ProtocolError struct {
	Code    ProtocolCode
	Op      Op
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors.Is(err, ErrProtocolViolation) succeed.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// ScriptedError carries a failure injected by an Err step. Step is the
// zero-based script position the failure came from.
type ScriptedError struct {
	Op   Op
	Step int
	Err  error
}

func (e *ScriptedError) Error() string {
	return fmt.Sprintf("scripted failure at step %d (op=%s): %v", e.Step, e.Op, e.Err)
}

func (e *ScriptedError) Unwrap() error {
	return e.Err
}

// InnerError carries a failure from the wrapped resource, unmodified.
type InnerError struct {
	Op  Op
	Err error
}

func (e *InnerError) Error() string {
	return fmt.Sprintf("inner %s: %v", e.Op, e.Err)
}

func (e *InnerError) Unwrap() error {
	return e.Err
}

// NewProtocolError creates a ProtocolError.
func NewProtocolError(code ProtocolCode, op Op, format string, args ...any) *ProtocolError {
	return &ProtocolError{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsProtocolViolation returns true if err is or wraps a ProtocolError.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrProtocolViolation)
}

// IsScripted returns true if err is or wraps a ScriptedError.
func IsScripted(err error) bool {
	var se *ScriptedError
	return errors.As(err, &se)
}

// IsInner returns true if err is or wraps an InnerError.
func IsInner(err error) bool {
	var ie *InnerError
	return errors.As(err, &ie)
}

// CodeOf returns the ProtocolCode of err, or "" if err is not a
// ProtocolError.
func CodeOf(err error) ProtocolCode {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
