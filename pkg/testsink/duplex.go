package testsink

import (
	"github.com/roach88/pollscript/pkg/poll"
	"github.com/roach88/pollscript/pkg/script"
)

// DuplexSink scripts the consumer half of a duplex resource. PollNext goes
// straight to the wrapped resource, untouched by the script.
type DuplexSink[T any] struct {
	*Sink[T]
	src poll.Producer[T]
}

var _ poll.Duplex[int] = (*DuplexSink[int])(nil)

// NewDuplex wraps inner like New and keeps its producer side reachable.
func NewDuplex[T any](inner poll.Duplex[T], steps []script.Step, opts ...Option) *DuplexSink[T] {
	return &DuplexSink[T]{
		Sink: New[T](inner, steps, opts...),
		src:  inner,
	}
}

// PollNext implements poll.Producer.
func (d *DuplexSink[T]) PollNext() (T, poll.Status, error) {
	return d.src.PollNext()
}
