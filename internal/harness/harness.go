package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/pollscript/internal/testutil"
	"github.com/roach88/pollscript/pkg/poll"
	"github.com/roach88/pollscript/pkg/script"
	"github.com/roach88/pollscript/pkg/testsink"
	"github.com/roach88/pollscript/pkg/teststream"
)

// RunOption configures Run.
type RunOption func(*Harness)

// WithLogger sets the logger for the runner and the harness it drives.
func WithLogger(l *slog.Logger) RunOption {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Harness executes one scenario against a freshly built test double.
// Trace events are stamped by a deterministic clock so the same scenario
// always yields the same trace.
type Harness struct {
	clock  *testutil.DeterministicClock
	logger *slog.Logger
	target target
}

// target is the scripted double under test, seen through the ops a
// scenario can issue.
type target interface {
	apply(a Action) TraceEvent
	setSteps(steps []script.Step)
	wake() bool
	release()
	items() []string
	state() poll.State
}

// Run executes a scenario and returns the result. An error is returned
// only when the scenario cannot be executed at all; expect and assertion
// failures are reported in Result.Errors.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	h := &Harness{
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	t, err := h.build(scenario)
	if err != nil {
		return nil, err
	}
	h.target = t

	result := NewResult()
	result.Scenario = scenario.Name
	result.Kind = scenario.Kind

	for i, action := range scenario.Actions {
		ev, err := h.execute(action)
		if err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		result.AddEvent(ev)

		h.logger.Info("action completed",
			"scenario", scenario.Name,
			"seq", ev.Seq,
			"op", ev.Op,
			"outcome", ev.Outcome,
		)

		if msg := checkExpect(i, action, ev); msg != "" {
			result.AddError(msg)
		}
	}

	result.Items = t.items()
	result.State = t.state().String()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) build(s *Scenario) (target, error) {
	policy, err := script.ParsePolicy(s.Policy)
	if err != nil {
		return nil, err
	}
	steps, err := script.ParseSteps(s.Steps)
	if err != nil {
		return nil, err
	}

	switch s.Kind {
	case KindConsumer:
		opts := []testsink.Option{
			testsink.WithPolicy(policy),
			testsink.WithLogger(h.logger),
		}
		if s.SharedScript {
			opts = append(opts, testsink.WithSharedScript())
		}
		if s.FlushSteps != nil {
			flush, err := script.ParseStepField("flush_steps", s.FlushSteps)
			if err != nil {
				return nil, err
			}
			opts = append(opts, testsink.WithFlushSteps(flush...))
		}
		if s.CloseSteps != nil {
			closing, err := script.ParseStepField("close_steps", s.CloseSteps)
			if err != nil {
				return nil, err
			}
			opts = append(opts, testsink.WithCloseSteps(closing...))
		}
		inner := poll.NewCollector[string]()
		return &consumerTarget{
			sink:  testsink.New[string](inner, steps, opts...),
			inner: inner,
		}, nil

	case KindProducer:
		opts := []teststream.Option{
			teststream.WithPolicy(policy),
			teststream.WithLogger(h.logger),
		}
		if s.FatalErrors {
			opts = append(opts, teststream.WithFatalErrors())
		}
		return &producerTarget{
			stream: teststream.New(s.Data, steps, opts...),
			pulled: []string{},
		}, nil

	default:
		return nil, fmt.Errorf("unknown kind %q", s.Kind)
	}
}

func (h *Harness) execute(a Action) (TraceEvent, error) {
	var ev TraceEvent

	switch a.Op {
	case OpWake:
		ev = TraceEvent{Op: a.Op, Outcome: OutcomeIdle}
		if h.target.wake() {
			ev.Outcome = OutcomeWoke
		}
	case OpSetSteps:
		steps, err := script.ParseSteps(a.Steps)
		if err != nil {
			return TraceEvent{}, err
		}
		h.target.setSteps(steps)
		ev = TraceEvent{Op: a.Op, Outcome: OutcomeOK}
	case OpRelease:
		h.target.release()
		ev = TraceEvent{Op: a.Op, Outcome: OutcomeOK}
	default:
		ev = h.target.apply(a)
	}

	ev.Seq = h.clock.Next()
	return ev, nil
}

func checkExpect(index int, a Action, ev TraceEvent) string {
	if a.Expect != "" && a.Expect != ev.Outcome {
		detail := ""
		if ev.Error != "" {
			detail = fmt.Sprintf(" (%s)", ev.Error)
		}
		return fmt.Sprintf("actions[%d] %s: expected %s, got %s%s",
			index, a.Op, a.Expect, ev.Outcome, detail)
	}
	if a.Error != "" && !strings.Contains(ev.Error, a.Error) {
		return fmt.Sprintf("actions[%d] %s: expected error containing %q, got %q",
			index, a.Op, a.Error, ev.Error)
	}
	return ""
}

// classify maps an error to its trace outcome. Misuse of the protocol by
// the driver is a violation; failures of the wrapped resource and
// scripted failures are errors.
func classify(err error) string {
	if poll.IsProtocolViolation(err) && !poll.IsInner(err) {
		return OutcomeViolation
	}
	return OutcomeError
}

func statusEvent(op string, st poll.Status, err error) TraceEvent {
	if err != nil {
		return TraceEvent{Op: op, Outcome: classify(err), Error: err.Error()}
	}
	return TraceEvent{Op: op, Outcome: st.String()}
}

type consumerTarget struct {
	sink  *testsink.Sink[string]
	inner *poll.Collector[string]
}

func (c *consumerTarget) apply(a Action) TraceEvent {
	switch a.Op {
	case OpReady:
		st, err := c.sink.PollReady()
		return statusEvent(a.Op, st, err)
	case OpAccept:
		ev := TraceEvent{Op: a.Op, Item: a.Item, Outcome: OutcomeOK}
		if err := c.sink.Accept(a.Item); err != nil {
			ev.Outcome = classify(err)
			ev.Error = err.Error()
		}
		return ev
	case OpFlush:
		st, err := c.sink.PollFlush()
		return statusEvent(a.Op, st, err)
	default:
		st, err := c.sink.PollClose()
		return statusEvent(a.Op, st, err)
	}
}

func (c *consumerTarget) setSteps(steps []script.Step) { c.sink.SetSteps(steps...) }
func (c *consumerTarget) wake() bool                   { return c.sink.Wake() }
func (c *consumerTarget) release()                     { c.sink.Release() }
func (c *consumerTarget) items() []string              { return c.inner.Items() }
func (c *consumerTarget) state() poll.State            { return c.sink.State() }

type producerTarget struct {
	stream *teststream.Stream[string]
	pulled []string
}

func (p *producerTarget) apply(a Action) TraceEvent {
	item, st, err := p.stream.PollNext()
	ev := statusEvent(a.Op, st, err)
	if err == nil && st == poll.Ready {
		ev.Item = item
		p.pulled = append(p.pulled, item)
	}
	return ev
}

func (p *producerTarget) setSteps(steps []script.Step) { p.stream.SetSteps(steps...) }
func (p *producerTarget) wake() bool                   { return p.stream.Wake() }
func (p *producerTarget) release()                     { p.stream.Release() }
func (p *producerTarget) items() []string              { return p.pulled }
func (p *producerTarget) state() poll.State            { return p.stream.State() }
