package teststream

import (
	"github.com/roach88/pollscript/pkg/poll"
	"github.com/roach88/pollscript/pkg/script"
)

// DuplexStream scripts the producer half of a duplex resource. The
// consumer calls go straight to the wrapped resource.
type DuplexStream[T any] struct {
	*Stream[T]
	dst poll.Consumer[T]
}

var _ poll.Duplex[int] = (*DuplexStream[int])(nil)

// WrapDuplex wraps inner like Wrap and keeps its consumer side reachable.
func WrapDuplex[T any](inner poll.Duplex[T], steps []script.Step, opts ...Option) *DuplexStream[T] {
	return &DuplexStream[T]{
		Stream: Wrap[T](inner, steps, opts...),
		dst:    inner,
	}
}

// PollReady implements poll.Consumer.
func (d *DuplexStream[T]) PollReady() (poll.Status, error) {
	return d.dst.PollReady()
}

// Accept implements poll.Consumer.
func (d *DuplexStream[T]) Accept(item T) error {
	return d.dst.Accept(item)
}

// PollFlush implements poll.Consumer.
func (d *DuplexStream[T]) PollFlush() (poll.Status, error) {
	return d.dst.PollFlush()
}

// PollClose implements poll.Consumer.
func (d *DuplexStream[T]) PollClose() (poll.Status, error) {
	return d.dst.PollClose()
}
