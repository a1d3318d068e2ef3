// Package teststream provides a scripted decorator for poll.Producer.
//
// The script decides when an item may be pulled; the data sequence decides
// which item. Running out of data always ends the stream, whatever steps
// remain.
package teststream

import (
	"errors"
	"log/slog"

	"github.com/roach88/pollscript/pkg/poll"
	"github.com/roach88/pollscript/pkg/script"
)

// Stream is a scripted poll.Producer. Not safe for concurrent use.
type Stream[T any] struct {
	inner  poll.Producer[T]
	script *script.Script
	wake   script.Wake
	state  poll.State
	fatal  bool
	log    *slog.Logger

	budget int // items left from the last Limited step
}

var _ poll.Producer[int] = (*Stream[int])(nil)

// New creates a Stream over a private copy of data.
func New[T any](data []T, steps []script.Step, opts ...Option) *Stream[T] {
	return Wrap[T](poll.FromSlice(data...), steps, opts...)
}

// Wrap creates a Stream over an arbitrary producer. If inner implements
// poll.Sized, an empty source ends the stream before the script is read.
func Wrap[T any](inner poll.Producer[T], steps []script.Step, opts ...Option) *Stream[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Stream[T]{
		inner:  inner,
		script: script.New(cfg.policy, steps...),
		fatal:  cfg.fatal,
		log:    cfg.logger,
	}
}

// PollNext implements poll.Producer.
func (s *Stream[T]) PollNext() (T, poll.Status, error) {
	var zero T

	switch s.state {
	case poll.Closed, poll.Failed, poll.Exhausted:
		return zero, poll.End, nil
	}

	if sz, ok := s.inner.(poll.Sized); ok && sz.Remaining() == 0 {
		s.exhaust()
		return zero, poll.End, nil
	}

	if s.wake.Pending() {
		return zero, poll.Pending, nil
	}

	if s.budget > 0 {
		s.budget--
		return s.pull(true)
	}

	step, err := s.script.Peek()
	if err != nil {
		var pe *poll.ProtocolError
		if errors.As(err, &pe) && pe.Op == "" {
			pe.Op = poll.OpNext
		}
		s.state = poll.Errored
		return zero, poll.Pending, err
	}

	switch {
	case step.Blocks():
		s.wake.Park(s.script, poll.OpNext)
		s.state = poll.AwaitingWake
		s.log.Debug("poll next", "step", step.String(), "outcome", "pending")
		return zero, poll.Pending, nil

	case step.Kind == script.KindErr:
		pos := s.script.Position()
		s.script.Advance()
		if s.fatal {
			s.state = poll.Failed
		} else {
			s.state = poll.Errored
		}
		s.log.Debug("poll next", "step", step.String(), "outcome", "error", "fatal", s.fatal)
		return zero, poll.Pending, &poll.ScriptedError{Op: poll.OpNext, Step: pos, Err: step.Err}

	case step.Kind == script.KindLimited:
		s.script.Advance()
		s.budget = step.N - 1
		s.log.Debug("poll next", "step", step.String(), "budget", step.N)
		return s.pull(true)

	default:
		s.script.Advance()
		return s.pull(false)
	}
}

// pull takes one item from inner. A bounded pull that comes back Pending
// returns its unit to the budget.
func (s *Stream[T]) pull(bounded bool) (T, poll.Status, error) {
	item, st, err := s.inner.PollNext()
	if err != nil {
		if bounded {
			s.budget++
		}
		s.state = poll.Errored
		return item, poll.Pending, &poll.InnerError{Op: poll.OpNext, Err: err}
	}

	switch st {
	case poll.End:
		s.exhaust()
	case poll.Pending:
		if bounded {
			s.budget++
		}
		s.state = poll.Idle
	default:
		s.state = poll.Idle
	}
	return item, st, nil
}

func (s *Stream[T]) exhaust() {
	s.state = poll.Exhausted
	s.budget = 0
	s.wake.Clear()
	s.log.Debug("poll next", "outcome", "end")
}

// Wake is the driver-issued advance. It consumes the blocking step behind
// the last Pending and returns false when nothing was waiting.
func (s *Stream[T]) Wake() bool {
	if !s.wake.Release() {
		return false
	}
	s.state = poll.Idle
	s.log.Debug("woken")
	return true
}

// SetSteps replaces the script and drops any outstanding budget.
func (s *Stream[T]) SetSteps(steps ...script.Step) {
	if s.wake.Pending() {
		s.wake.Clear()
		s.state = poll.Idle
	}
	s.budget = 0
	s.script.Reset(steps...)
}

// State returns the lifecycle state.
func (s *Stream[T]) State() poll.State {
	return s.state
}

// Inner returns the wrapped producer.
func (s *Stream[T]) Inner() poll.Producer[T] {
	return s.inner
}

// Release closes the Stream and hands back the wrapped producer. Items not
// yet pulled stay in it.
func (s *Stream[T]) Release() poll.Producer[T] {
	s.state = poll.Closed
	s.wake.Clear()
	s.budget = 0
	return s.inner
}
