// Package topicpoll exposes caravan topics through the poll contracts.
//
// The adapters never block: a send or receive that cannot complete right
// away is reported as Pending. They are the real resources the scripted
// harnesses wrap in integration tests.
package topicpoll

import (
	"github.com/kode4food/caravan/topic"

	"github.com/roach88/pollscript/pkg/poll"
)

// Consumer adapts a topic producer to poll.Consumer. It stages at most one
// item; readiness and flush try to hand the staged item to the topic.
type Consumer[T any] struct {
	prod   topic.Producer[T]
	staged T
	full   bool
	closed bool
}

// Producer adapts a topic consumer to poll.Producer.
type Producer[T any] struct {
	cons   topic.Consumer[T]
	closed bool
}

var (
	_ poll.Consumer[int] = (*Consumer[int])(nil)
	_ poll.Producer[int] = (*Producer[int])(nil)
)

// NewConsumer wraps prod. PollClose closes it.
func NewConsumer[T any](prod topic.Producer[T]) *Consumer[T] {
	return &Consumer[T]{prod: prod}
}

// PollReady is Ready once the staging slot is empty.
func (c *Consumer[T]) PollReady() (poll.Status, error) {
	if c.closed {
		return poll.Pending, poll.NewProtocolError(poll.CodeClosed, poll.OpReady, "topic producer is closed")
	}
	if !c.handOff() {
		return poll.Pending, nil
	}
	return poll.Ready, nil
}

// Accept stages item for the topic.
func (c *Consumer[T]) Accept(item T) error {
	if c.closed {
		return poll.NewProtocolError(poll.CodeClosed, poll.OpAccept, "topic producer is closed")
	}
	if c.full {
		return poll.NewProtocolError(poll.CodeCapacityExceeded, poll.OpAccept,
			"staging slot is occupied")
	}
	c.staged = item
	c.full = true
	return nil
}

// PollFlush is Ready once the staged item reached the topic.
func (c *Consumer[T]) PollFlush() (poll.Status, error) {
	if c.closed {
		return poll.Pending, poll.NewProtocolError(poll.CodeClosed, poll.OpFlush, "topic producer is closed")
	}
	if !c.handOff() {
		return poll.Pending, nil
	}
	return poll.Ready, nil
}

// PollClose flushes, then closes the topic producer.
func (c *Consumer[T]) PollClose() (poll.Status, error) {
	if c.closed {
		return poll.Ready, nil
	}
	if !c.handOff() {
		return poll.Pending, nil
	}
	c.prod.Close()
	c.closed = true
	return poll.Ready, nil
}

func (c *Consumer[T]) handOff() bool {
	if !c.full {
		return true
	}
	select {
	case c.prod.Send() <- c.staged:
		var zero T
		c.staged = zero
		c.full = false
		return true
	default:
		return false
	}
}

// NewProducer wraps cons. Close closes it.
func NewProducer[T any](cons topic.Consumer[T]) *Producer[T] {
	return &Producer[T]{cons: cons}
}

// PollNext receives without blocking. A closed receive channel ends the
// stream.
func (p *Producer[T]) PollNext() (T, poll.Status, error) {
	var zero T
	if p.closed {
		return zero, poll.End, nil
	}
	select {
	case item, ok := <-p.cons.Receive():
		if !ok {
			p.closed = true
			return zero, poll.End, nil
		}
		return item, poll.Ready, nil
	default:
		return zero, poll.Pending, nil
	}
}

// Close closes the topic consumer. Later pulls report End.
func (p *Producer[T]) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.cons.Close()
}
