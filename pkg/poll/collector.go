package poll

// Collector is an always-ready Consumer that records what it receives.
// Not safe for concurrent use.
type Collector[T any] struct {
	items   []T
	flushes int
	closed  bool
}

var _ Consumer[int] = (*Collector[int])(nil)

// NewCollector creates an empty Collector.
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

func (c *Collector[T]) PollReady() (Status, error) {
	if c.closed {
		return Pending, NewProtocolError(CodeClosed, OpReady, "collector is closed")
	}
	return Ready, nil
}

func (c *Collector[T]) Accept(item T) error {
	if c.closed {
		return NewProtocolError(CodeClosed, OpAccept, "collector is closed")
	}
	c.items = append(c.items, item)
	return nil
}

func (c *Collector[T]) PollFlush() (Status, error) {
	if c.closed {
		return Pending, NewProtocolError(CodeClosed, OpFlush, "collector is closed")
	}
	c.flushes++
	return Ready, nil
}

// PollClose is idempotent.
func (c *Collector[T]) PollClose() (Status, error) {
	c.closed = true
	return Ready, nil
}

// Items returns a copy of the accepted items in order.
func (c *Collector[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Flushes returns how many times PollFlush completed.
func (c *Collector[T]) Flushes() int {
	return c.flushes
}

// Closed reports whether PollClose was called.
func (c *Collector[T]) Closed() bool {
	return c.closed
}
