package script

import (
	"github.com/roach88/pollscript/pkg/poll"
)

// Policy decides what a Script yields once every step has been consumed.
type Policy uint8

const (
	// DelegateToInner yields Unlimited forever.
	DelegateToInner Policy = iota

	// RepeatLast keeps yielding the final step. A final Err step is
	// surfaced once, after which the script behaves as DelegateToInner.
	RepeatLast

	// Cycle starts over from the first step. Each pass is a new occurrence,
	// so Err steps recur once per pass.
	Cycle

	// Strict fails with a SCRIPT_EXHAUSTED protocol violation.
	Strict
)

func (p Policy) String() string {
	switch p {
	case DelegateToInner:
		return "delegate"
	case RepeatLast:
		return "repeat_last"
	case Cycle:
		return "cycle"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// Script is an owned, ordered sequence of steps with a cursor.
// Not safe for concurrent use.
type Script struct {
	steps  []Step
	pos    int
	policy Policy
	spent  bool // final Err step consumed under RepeatLast
}

// New copies steps into a Script governed by policy.
func New(policy Policy, steps ...Step) *Script {
	s := &Script{policy: policy}
	s.Reset(steps...)
	return s
}

// Reset replaces the steps and rewinds the cursor. The policy is kept.
func (s *Script) Reset(steps ...Step) {
	s.steps = make([]Step, len(steps))
	copy(s.steps, steps)
	s.pos = 0
	s.spent = false
}

// Peek returns the current step without advancing.
func (s *Script) Peek() (Step, error) {
	if s.pos < len(s.steps) {
		return s.steps[s.pos], nil
	}
	return s.exhausted()
}

// Next returns the current step and advances past it.
func (s *Script) Next() (Step, error) {
	step, err := s.Peek()
	if err != nil {
		return Step{}, err
	}
	s.Advance()
	return step, nil
}

// Advance consumes the current step.
func (s *Script) Advance() {
	if s.pos >= len(s.steps) {
		return
	}
	s.pos++
	if s.pos < len(s.steps) {
		return
	}
	switch s.policy {
	case Cycle:
		s.pos = 0
	case RepeatLast:
		s.spent = s.steps[len(s.steps)-1].Kind == KindErr
	}
}

// Position returns the zero-based cursor. It equals Len once exhausted.
func (s *Script) Position() int {
	return s.pos
}

// Len returns the number of scripted steps.
func (s *Script) Len() int {
	return len(s.steps)
}

// Exhausted reports whether every scripted step has been consumed. A
// cycling script with steps is never exhausted.
func (s *Script) Exhausted() bool {
	return s.pos >= len(s.steps)
}

// Policy returns the exhaustion policy.
func (s *Script) Policy() Policy {
	return s.policy
}

func (s *Script) exhausted() (Step, error) {
	switch s.policy {
	case Strict:
		return Step{}, poll.NewProtocolError(poll.CodeScriptExhausted, "",
			"script exhausted after %d steps", len(s.steps))
	case RepeatLast:
		if len(s.steps) == 0 || s.spent {
			return Unlimited(), nil
		}
		return s.steps[len(s.steps)-1], nil
	default:
		// Cycle only gets here when it has no steps
		return Unlimited(), nil
	}
}
