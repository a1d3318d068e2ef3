package poll

// Status is the outcome of a single poll.
type Status uint8

const (
	// Pending means the operation cannot make progress yet.
	Pending Status = iota

	// Ready means the operation completed. For PollNext it means an item
	// was produced.
	Ready

	// End means a producer has no more items. Consumers never return it.
	End
)

// String returns the lowercase name used in traces and scenario files.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Consumer is a sink-like target that accepts items under a readiness
// protocol.
type Consumer[T any] interface {
	// PollReady reports whether the consumer can accept an item.
	PollReady() (Status, error)

	// Accept hands one item to the consumer. It is only valid after
	// PollReady reported Ready.
	Accept(item T) error

	// PollFlush drives previously accepted items to completion.
	PollFlush() (Status, error)

	// PollClose flushes and finalizes the consumer.
	PollClose() (Status, error)
}

// Producer is a stream-like source that yields items one at a time.
type Producer[T any] interface {
	// PollNext returns the next item with Ready, Pending when no item is
	// available yet, or End once the producer is exhausted.
	PollNext() (T, Status, error)
}

// Duplex is a resource that is both a consumer and a producer of T, such
// as one end of a connection.
type Duplex[T any] interface {
	Consumer[T]
	Producer[T]
}

// Sized is implemented by producers that know how many items remain.
// Harnesses use it to report End before consulting their script.
type Sized interface {
	Remaining() int
}

// Op names a poll operation in traces, logs, and errors.
type Op string

const (
	OpReady  Op = "ready"
	OpAccept Op = "accept"
	OpFlush  Op = "flush"
	OpClose  Op = "close"
	OpNext   Op = "next"
)
