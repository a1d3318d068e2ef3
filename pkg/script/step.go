// Package script models the per-call outcomes a scripted harness replays.
//
// A Step decides the outcome of exactly one poll. A Script is an owned,
// ordered sequence of steps with a cursor and an exhaustion Policy that
// decides what happens once every step has been consumed.
package script

import (
	"fmt"
)

// Kind is the variant tag of a Step.
type Kind uint8

const (
	// KindLimited allows at most N units this call.
	KindLimited Kind = iota

	// KindUnlimited delegates fully to the wrapped resource.
	KindUnlimited

	// KindWouldBlock reports not-ready and consumes nothing.
	KindWouldBlock

	// KindErr surfaces Err exactly once.
	KindErr
)

func (k Kind) String() string {
	switch k {
	case KindLimited:
		return "limited"
	case KindUnlimited:
		return "unlimited"
	case KindWouldBlock:
		return "would_block"
	case KindErr:
		return "err"
	default:
		return "unknown"
	}
}

// Step is one scripted outcome.
type Step struct {
	Kind Kind
	N    int
	Err  error
}

// Limited returns a step allowing at most n units.
func Limited(n int) Step {
	return Step{Kind: KindLimited, N: n}
}

// Unlimited returns a step that delegates to the wrapped resource.
func Unlimited() Step {
	return Step{Kind: KindUnlimited}
}

// WouldBlock returns a not-ready step.
func WouldBlock() Step {
	return Step{Kind: KindWouldBlock}
}

// Fail returns a step that surfaces err once.
func Fail(err error) Step {
	return Step{Kind: KindErr, Err: err}
}

// Blocks reports whether the step yields a not-ready outcome. Limited(0)
// blocks: zero units available is the same as not ready.
func (s Step) Blocks() bool {
	return s.Kind == KindWouldBlock || (s.Kind == KindLimited && s.N <= 0)
}

// String renders the step in the text syntax accepted by ParseStep.
func (s Step) String() string {
	switch s.Kind {
	case KindLimited:
		return fmt.Sprintf("limited(%d)", s.N)
	case KindErr:
		if s.Err == nil {
			return "err()"
		}
		return fmt.Sprintf("err(%s)", s.Err.Error())
	default:
		return s.Kind.String()
	}
}

// InjectedError is the error created for err(NAME) in the text syntax.
// Two InjectedErrors are equal when their names match.
type InjectedError struct {
	Name string
}

func (e *InjectedError) Error() string {
	return e.Name
}

// Is matches any InjectedError with the same name.
func (e *InjectedError) Is(target error) bool {
	t, ok := target.(*InjectedError)
	return ok && t.Name == e.Name
}
