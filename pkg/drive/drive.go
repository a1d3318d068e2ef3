// Package drive composes poll-based operations into futures and runs them
// to completion from a test.
//
// Run plays the part of an executor: it polls, and on every Pending calls
// back into the test, which is where a harness gets woken.
package drive

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pollscript/pkg/poll"
)

// DefaultMaxPolls bounds Run when WithMaxPolls is not given.
const DefaultMaxPolls = 10_000

// ErrStalled is returned by Run when the poll budget is used up before the
// future completes.
var ErrStalled = errors.New("drive: future stalled")

// Future is a resumable operation. Poll returns Pending until the work is
// done; after Ready or an error it must not be polled again.
type Future interface {
	Poll() (poll.Status, error)
}

// FutureFunc adapts a function to Future.
type FutureFunc func() (poll.Status, error)

// Poll calls f.
func (f FutureFunc) Poll() (poll.Status, error) {
	return f()
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	onPending func()
	maxPolls  int
}

// WithOnPending registers fn to be called after every Pending.
func WithOnPending(fn func()) Option {
	return func(c *runConfig) {
		c.onPending = fn
	}
}

// WithMaxPolls caps how many times Run polls before giving up with
// ErrStalled. Zero or less means DefaultMaxPolls.
func WithMaxPolls(n int) Option {
	return func(c *runConfig) {
		c.maxPolls = n
	}
}

// Run polls f until it is no longer Pending. It returns the future's error,
// ErrStalled, or the context's error.
func Run(ctx context.Context, f Future, opts ...Option) error {
	cfg := runConfig{maxPolls: DefaultMaxPolls}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxPolls <= 0 {
		cfg.maxPolls = DefaultMaxPolls
	}

	for polls := 0; polls < cfg.maxPolls; polls++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, err := f.Poll()
		if err != nil {
			return err
		}
		if st != poll.Pending {
			return nil
		}
		if cfg.onPending != nil {
			cfg.onPending()
		}
	}
	return fmt.Errorf("%w after %d polls", ErrStalled, cfg.maxPolls)
}

// Close is a future that closes a consumer.
type Close[T any] struct {
	c    poll.Consumer[T]
	done bool
}

// NewClose creates a Close future.
func NewClose[T any](c poll.Consumer[T]) *Close[T] {
	return &Close[T]{c: c}
}

// Poll implements Future.
func (f *Close[T]) Poll() (poll.Status, error) {
	if f.done {
		return poll.Ready, nil
	}
	st, err := f.c.PollClose()
	if err != nil {
		return poll.Pending, fmt.Errorf("close: %w", err)
	}
	f.done = st == poll.Ready
	return st, nil
}

// SendClose sends one item, then flushes and closes the consumer.
type SendClose[T any] struct {
	c     poll.Consumer[T]
	item  T
	stage sendStage
}

type sendStage uint8

const (
	stageSend sendStage = iota
	stageFlush
	stageClose
	stageDone
)

// NewSendClose creates a SendClose future for item.
func NewSendClose[T any](c poll.Consumer[T], item T) *SendClose[T] {
	return &SendClose[T]{c: c, item: item}
}

// Poll implements Future.
func (f *SendClose[T]) Poll() (poll.Status, error) {
	for {
		switch f.stage {
		case stageSend:
			st, err := f.c.PollReady()
			if err != nil {
				return poll.Pending, fmt.Errorf("send: %w", err)
			}
			if st != poll.Ready {
				return poll.Pending, nil
			}
			if err := f.c.Accept(f.item); err != nil {
				return poll.Pending, fmt.Errorf("send: %w", err)
			}
			f.stage = stageFlush

		case stageFlush:
			st, err := f.c.PollFlush()
			if err != nil {
				return poll.Pending, fmt.Errorf("flush: %w", err)
			}
			if st != poll.Ready {
				return poll.Pending, nil
			}
			f.stage = stageClose

		case stageClose:
			st, err := f.c.PollClose()
			if err != nil {
				return poll.Pending, fmt.Errorf("close: %w", err)
			}
			if st != poll.Ready {
				return poll.Pending, nil
			}
			f.stage = stageDone

		default:
			return poll.Ready, nil
		}
	}
}

// SendAll forwards every item of a producer into a consumer, then flushes.
// The consumer is not closed.
type SendAll[T any] struct {
	src      poll.Producer[T]
	dst      poll.Consumer[T]
	buffered *T
	ended    bool
	sent     int
}

// NewSendAll creates a SendAll future.
func NewSendAll[T any](src poll.Producer[T], dst poll.Consumer[T]) *SendAll[T] {
	return &SendAll[T]{src: src, dst: dst}
}

// Sent returns how many items were accepted by the consumer.
func (f *SendAll[T]) Sent() int {
	return f.sent
}

// Poll implements Future.
func (f *SendAll[T]) Poll() (poll.Status, error) {
	for {
		if f.buffered != nil {
			st, err := f.dst.PollReady()
			if err != nil {
				return poll.Pending, fmt.Errorf("send: %w", err)
			}
			if st != poll.Ready {
				return poll.Pending, nil
			}
			if err := f.dst.Accept(*f.buffered); err != nil {
				return poll.Pending, fmt.Errorf("send: %w", err)
			}
			f.buffered = nil
			f.sent++
		}

		if f.ended {
			return f.flush()
		}

		item, st, err := f.src.PollNext()
		if err != nil {
			return poll.Pending, fmt.Errorf("next: %w", err)
		}
		switch st {
		case poll.Ready:
			f.buffered = &item
		case poll.End:
			f.ended = true
		default:
			// Source is idle: push out what was sent so far.
			if _, err := f.flush(); err != nil {
				return poll.Pending, err
			}
			return poll.Pending, nil
		}
	}
}

func (f *SendAll[T]) flush() (poll.Status, error) {
	st, err := f.dst.PollFlush()
	if err != nil {
		return poll.Pending, fmt.Errorf("flush: %w", err)
	}
	return st, nil
}
