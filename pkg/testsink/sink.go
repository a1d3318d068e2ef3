// Package testsink provides a scripted decorator for poll.Consumer.
//
// A Sink puts a script in front of the wrapped consumer's readiness checks,
// which makes partial acceptance and injected failures reproducible.
// Non-blocking steps still ask the wrapped consumer, so it can hold items
// back on its own:
//
//	inner := poll.NewCollector[string]()
//	s := testsink.New[string](inner, []script.Step{
//	    script.Limited(2), script.WouldBlock(), script.Limited(1),
//	})
//
//	s.PollReady()   // Ready, grant of 2
//	s.Accept("a")   // nil
//	s.Accept("b")   // nil
//	s.Accept("c")   // GRANT_EXCEEDED protocol violation
//	s.PollReady()   // Pending until the driver calls Wake
//	s.Wake()
//	s.PollReady()   // Ready, grant of 1
//
// A not-ready outcome is sticky: the Sink keeps answering Pending until the
// test driver calls Wake. Nothing is scheduled in the background.
package testsink

import (
	"errors"
	"log/slog"

	"github.com/roach88/pollscript/pkg/poll"
	"github.com/roach88/pollscript/pkg/script"
)

// Sink is a scripted poll.Consumer. It owns its scripts, grant, and wake
// token; a single poller may drive it at a time.
type Sink[T any] struct {
	inner       poll.Consumer[T]
	sendScript  *script.Script
	flushScript *script.Script
	closeScript *script.Script
	policy      script.Policy
	wake        script.Wake
	state       poll.State
	log         *slog.Logger

	grant      int
	spent      bool // a Limited grant was used up since the last check
	delegating bool // the last readiness check deferred to inner
}

var _ poll.Consumer[int] = (*Sink[int])(nil)

// New wraps inner with a send script built from steps.
//
// By default flush and close have their own empty scripts that delegate to
// inner. WithFlushSteps and WithCloseSteps script them independently;
// WithSharedScript makes all three operations consume the send script.
func New[T any](inner poll.Consumer[T], steps []script.Step, opts ...Option) *Sink[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	s := &Sink[T]{
		inner:      inner,
		sendScript: script.New(cfg.policy, steps...),
		policy:     cfg.policy,
		log:        cfg.logger,
	}

	switch {
	case cfg.shared:
		s.flushScript = s.sendScript
		s.closeScript = s.sendScript
	default:
		s.flushScript = operationScript(cfg.policy, cfg.flushSet, cfg.flushSteps)
		s.closeScript = operationScript(cfg.policy, cfg.closeSet, cfg.closeSteps)
	}

	return s
}

func operationScript(p script.Policy, set bool, steps []script.Step) *script.Script {
	if !set {
		return script.New(script.DelegateToInner)
	}
	return script.New(p, steps...)
}

// PollReady implements poll.Consumer.
func (s *Sink[T]) PollReady() (poll.Status, error) {
	if s.state == poll.Closed {
		return poll.Pending, closedError(poll.OpReady)
	}
	if s.wake.Pending() {
		return poll.Pending, nil
	}
	if s.grant > 0 {
		return s.innerReady(script.Limited(s.grant))
	}

	s.spent = false
	s.delegating = false

	step, err := s.sendScript.Peek()
	if err != nil {
		return poll.Pending, s.fail(poll.OpReady, err)
	}

	switch {
	case step.Blocks():
		return s.park(s.sendScript, poll.OpReady, step)

	case step.Kind == script.KindErr:
		return poll.Pending, s.inject(s.sendScript, poll.OpReady, step)

	case step.Kind == script.KindLimited:
		st, err := s.innerReady(step)
		if err != nil || st != poll.Ready {
			return st, err
		}
		s.sendScript.Advance()
		s.grant = step.N
		s.log.Debug("grant", "step", step.String(), "grant", s.grant)
		return poll.Ready, nil

	default:
		s.sendScript.Advance()
		st, err := s.innerReady(step)
		if err != nil {
			return st, err
		}
		s.delegating = st == poll.Ready
		return st, nil
	}
}

// innerReady asks the wrapped consumer whether it can take an item now.
// A Pending answer leaves the script and grant untouched.
func (s *Sink[T]) innerReady(step script.Step) (poll.Status, error) {
	st, err := s.inner.PollReady()
	if err != nil {
		s.state = poll.Errored
		return poll.Pending, &poll.InnerError{Op: poll.OpReady, Err: err}
	}
	s.state = poll.Idle
	s.log.Debug("poll ready", "step", step.String(), "inner", st.String())
	return st, nil
}

// Accept implements poll.Consumer. Within a Limited grant each call uses
// one unit; after an Unlimited check items pass straight to inner.
func (s *Sink[T]) Accept(item T) error {
	if s.state == poll.Closed {
		return closedError(poll.OpAccept)
	}

	switch {
	case s.grant > 0:
		if err := s.forward(item); err != nil {
			return err
		}
		s.grant--
		if s.grant == 0 {
			s.spent = true
		}
		return nil

	case s.delegating:
		return s.forward(item)

	case s.spent:
		return poll.NewProtocolError(poll.CodeGrantExceeded, poll.OpAccept,
			"grant used up; a new readiness check is required")

	default:
		return poll.NewProtocolError(poll.CodeAcceptBeforeReady, poll.OpAccept,
			"accept requires a ready outcome from PollReady")
	}
}

// PollFlush implements poll.Consumer.
func (s *Sink[T]) PollFlush() (poll.Status, error) {
	return s.pollScripted(s.flushScript, poll.OpFlush, s.inner.PollFlush)
}

// PollClose implements poll.Consumer. A Ready close moves the Sink to
// Closed; every later call is a CLOSED protocol violation.
func (s *Sink[T]) PollClose() (poll.Status, error) {
	st, err := s.pollScripted(s.closeScript, poll.OpClose, s.inner.PollClose)
	if err == nil && st == poll.Ready {
		s.state = poll.Closed
		s.grant = 0
		s.delegating = false
	}
	return st, err
}

// Wake is the driver-issued advance. It consumes the blocking step that
// produced the last Pending and returns the Sink to Idle. It returns false
// when nothing was waiting.
func (s *Sink[T]) Wake() bool {
	if !s.wake.Release() {
		return false
	}
	s.state = poll.Idle
	s.log.Debug("woken")
	return true
}

// SetSteps replaces the send script. In shared mode this also replaces
// what flush and close consume.
func (s *Sink[T]) SetSteps(steps ...script.Step) {
	s.reset(s.sendScript, steps)
}

// SetFlushSteps gives flush its own script, even in shared mode.
func (s *Sink[T]) SetFlushSteps(steps ...script.Step) {
	s.flushScript = s.replace(s.flushScript, poll.OpFlush, steps)
}

// SetCloseSteps gives close its own script, even in shared mode.
func (s *Sink[T]) SetCloseSteps(steps ...script.Step) {
	s.closeScript = s.replace(s.closeScript, poll.OpClose, steps)
}

// State returns the lifecycle state.
func (s *Sink[T]) State() poll.State {
	return s.state
}

// Grant returns the number of items that may still be accepted before a
// new readiness check.
func (s *Sink[T]) Grant() int {
	return s.grant
}

// Shared reports whether flush and close consume the send script.
func (s *Sink[T]) Shared() bool {
	return s.flushScript == s.sendScript && s.closeScript == s.sendScript
}

// Inner returns the wrapped consumer.
func (s *Sink[T]) Inner() poll.Consumer[T] {
	return s.inner
}

// Release closes the Sink and hands back the wrapped consumer untouched.
// Remaining script state is discarded.
func (s *Sink[T]) Release() poll.Consumer[T] {
	s.state = poll.Closed
	s.wake.Clear()
	s.grant = 0
	s.delegating = false
	return s.inner
}

func (s *Sink[T]) pollScripted(
	sc *script.Script, op poll.Op, call func() (poll.Status, error),
) (poll.Status, error) {
	if s.state == poll.Closed {
		return poll.Pending, closedError(op)
	}
	if s.wake.Pending() {
		return poll.Pending, nil
	}

	step, err := sc.Peek()
	if err != nil {
		return poll.Pending, s.fail(op, err)
	}

	switch {
	case step.Blocks():
		return s.park(sc, op, step)
	case step.Kind == script.KindErr:
		return poll.Pending, s.inject(sc, op, step)
	}

	sc.Advance()
	st, err := call()
	if err != nil {
		s.state = poll.Errored
		return poll.Pending, &poll.InnerError{Op: op, Err: err}
	}
	s.state = poll.Idle
	s.log.Debug("poll", "op", op, "step", step.String(), "inner", st.String())
	return st, nil
}

func (s *Sink[T]) forward(item T) error {
	if err := s.inner.Accept(item); err != nil {
		return &poll.InnerError{Op: poll.OpAccept, Err: err}
	}
	return nil
}

func (s *Sink[T]) park(sc *script.Script, op poll.Op, step script.Step) (poll.Status, error) {
	s.wake.Park(sc, op)
	s.state = poll.AwaitingWake
	s.log.Debug("poll", "op", op, "step", step.String(), "outcome", "pending")
	return poll.Pending, nil
}

func (s *Sink[T]) inject(sc *script.Script, op poll.Op, step script.Step) error {
	pos := sc.Position()
	sc.Advance()
	s.state = poll.Errored
	s.log.Debug("poll", "op", op, "step", step.String(), "outcome", "error")
	return &poll.ScriptedError{Op: op, Step: pos, Err: step.Err}
}

func (s *Sink[T]) fail(op poll.Op, err error) error {
	var pe *poll.ProtocolError
	if errors.As(err, &pe) && pe.Op == "" {
		pe.Op = op
	}
	s.state = poll.Errored
	return err
}

func (s *Sink[T]) reset(sc *script.Script, steps []script.Step) {
	if s.wake.ParkedOn(sc) {
		s.wake.Clear()
		s.state = poll.Idle
	}
	sc.Reset(steps...)
}

// replace swaps the script of op. In shared mode sc is also the send
// script, so a token parked by another operation stays parked.
func (s *Sink[T]) replace(sc *script.Script, op poll.Op, steps []script.Step) *script.Script {
	if s.wake.ParkedOn(sc) && s.wake.Op() == op {
		s.wake.Clear()
		s.state = poll.Idle
	}
	return script.New(s.policy, steps...)
}

func closedError(op poll.Op) error {
	return poll.NewProtocolError(poll.CodeClosed, op, "sink is closed")
}
