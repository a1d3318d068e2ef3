// Package testchan is an in-memory bounded channel with poll-based ends.
//
// Each message carries either an item or an error, so a test can feed a
// producer harness both data and transport failures through one queue.
// There are no goroutines involved: a full channel answers Pending and the
// test drains the other end.
package testchan

import (
	"errors"

	"github.com/roach88/pollscript/pkg/poll"
)

var (
	// ErrZeroCapacity is returned by New for a capacity below one.
	ErrZeroCapacity = errors.New("testchan: capacity must be at least 1")

	// ErrDisconnected is returned by the Sender once the Receiver is closed.
	ErrDisconnected = errors.New("testchan: receiver closed")
)

// Message is one entry in the channel: an item or an error.
type Message[T any] struct {
	Item T
	Err  error
}

// Value wraps an item.
func Value[T any](item T) Message[T] {
	return Message[T]{Item: item}
}

// Failure wraps an error.
func Failure[T any](err error) Message[T] {
	return Message[T]{Err: err}
}

type queue[T any] struct {
	buf      []Message[T]
	capacity int
	sealed   bool // sender closed
	dropped  bool // receiver closed
}

// Sender is the writing end. It implements poll.Consumer.
type Sender[T any] struct {
	q *queue[T]
}

// Receiver is the reading end. It implements poll.Producer.
type Receiver[T any] struct {
	q *queue[T]
}

var (
	_ poll.Consumer[Message[int]] = (*Sender[int])(nil)
	_ poll.Producer[int]          = (*Receiver[int])(nil)
)

// New creates a channel holding at most capacity messages.
func New[T any](capacity int) (*Sender[T], *Receiver[T], error) {
	if capacity < 1 {
		return nil, nil, ErrZeroCapacity
	}
	q := &queue[T]{capacity: capacity}
	return &Sender[T]{q: q}, &Receiver[T]{q: q}, nil
}

// PollReady reports Ready while there is room.
func (s *Sender[T]) PollReady() (poll.Status, error) {
	if err := s.check(poll.OpReady); err != nil {
		return poll.Pending, err
	}
	if len(s.q.buf) >= s.q.capacity {
		return poll.Pending, nil
	}
	return poll.Ready, nil
}

// Accept enqueues msg. Accepting into a full channel is a
// CAPACITY_EXCEEDED violation, even after an earlier Ready.
func (s *Sender[T]) Accept(msg Message[T]) error {
	if err := s.check(poll.OpAccept); err != nil {
		return err
	}
	if len(s.q.buf) >= s.q.capacity {
		return poll.NewProtocolError(poll.CodeCapacityExceeded, poll.OpAccept,
			"channel is full (capacity %d)", s.q.capacity)
	}
	s.q.buf = append(s.q.buf, msg)
	return nil
}

// PollFlush is Ready once the receiver has drained every message.
func (s *Sender[T]) PollFlush() (poll.Status, error) {
	if err := s.check(poll.OpFlush); err != nil {
		return poll.Pending, err
	}
	if len(s.q.buf) > 0 {
		return poll.Pending, nil
	}
	return poll.Ready, nil
}

// PollClose marks the end of the stream. Buffered messages remain
// readable. Closing twice is a no-op.
func (s *Sender[T]) PollClose() (poll.Status, error) {
	s.q.sealed = true
	return poll.Ready, nil
}

// Send is shorthand for PollReady followed by Accept of a Value.
// It returns Pending when the channel is full.
func (s *Sender[T]) Send(item T) (poll.Status, error) {
	st, err := s.PollReady()
	if err != nil || st != poll.Ready {
		return st, err
	}
	return poll.Ready, s.Accept(Value(item))
}

func (s *Sender[T]) check(op poll.Op) error {
	switch {
	case s.q.sealed:
		return poll.NewProtocolError(poll.CodeClosed, op, "sender is closed")
	case s.q.dropped:
		return ErrDisconnected
	}
	return nil
}

// PollNext pops the oldest message. An error message is returned as the
// error of that pull and does not end the stream.
func (r *Receiver[T]) PollNext() (T, poll.Status, error) {
	var zero T
	if r.q.dropped {
		return zero, poll.End, nil
	}
	if len(r.q.buf) == 0 {
		if r.q.sealed {
			return zero, poll.End, nil
		}
		return zero, poll.Pending, nil
	}

	msg := r.q.buf[0]
	r.q.buf = r.q.buf[1:]
	if msg.Err != nil {
		return zero, poll.Pending, msg.Err
	}
	return msg.Item, poll.Ready, nil
}

// Len returns the number of buffered messages.
func (r *Receiver[T]) Len() int {
	return len(r.q.buf)
}

// Close drops the receiving end. Buffered messages are discarded and later
// sends fail with ErrDisconnected.
func (r *Receiver[T]) Close() {
	r.q.dropped = true
	r.q.buf = nil
}

// Loop is both ends of one channel: items accepted on it are read back
// from it in order. It implements poll.Duplex.
type Loop[T any] struct {
	tx *Sender[T]
	rx *Receiver[T]
}

var _ poll.Duplex[int] = (*Loop[int])(nil)

// NewLoop creates a Loop holding at most capacity items.
func NewLoop[T any](capacity int) (*Loop[T], error) {
	tx, rx, err := New[T](capacity)
	if err != nil {
		return nil, err
	}
	return &Loop[T]{tx: tx, rx: rx}, nil
}

// PollReady reports Ready while there is room.
func (l *Loop[T]) PollReady() (poll.Status, error) {
	return l.tx.PollReady()
}

// Accept enqueues item.
func (l *Loop[T]) Accept(item T) error {
	return l.tx.Accept(Value(item))
}

// PollFlush is Ready once every item has been read back.
func (l *Loop[T]) PollFlush() (poll.Status, error) {
	return l.tx.PollFlush()
}

// PollClose ends the stream after the buffered items.
func (l *Loop[T]) PollClose() (poll.Status, error) {
	return l.tx.PollClose()
}

// PollNext pops the oldest item.
func (l *Loop[T]) PollNext() (T, poll.Status, error) {
	return l.rx.PollNext()
}

// Len returns the number of buffered items.
func (l *Loop[T]) Len() int {
	return l.rx.Len()
}
