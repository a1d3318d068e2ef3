package testsink

import (
	"io"
	"log/slog"

	"github.com/roach88/pollscript/pkg/script"
)

// Option configures a Sink.
type Option func(*config)

type config struct {
	policy     script.Policy
	shared     bool
	flushSteps []script.Step
	closeSteps []script.Step
	flushSet   bool
	closeSet   bool
	logger     *slog.Logger
}

func defaultConfig() config {
	return config{
		policy: script.DelegateToInner,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithPolicy sets the exhaustion policy of the send script and of any
// explicitly configured flush or close script.
func WithPolicy(p script.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithSharedScript makes flush and close consume steps from the send
// script instead of their own. Per-operation steps are ignored.
func WithSharedScript() Option {
	return func(c *config) {
		c.shared = true
	}
}

// WithFlushSteps scripts PollFlush. Without it, flush delegates to the
// wrapped consumer.
func WithFlushSteps(steps ...script.Step) Option {
	return func(c *config) {
		c.flushSteps = steps
		c.flushSet = true
	}
}

// WithCloseSteps scripts PollClose. Without it, close delegates to the
// wrapped consumer.
func WithCloseSteps(steps ...script.Step) Option {
	return func(c *config) {
		c.closeSteps = steps
		c.closeSet = true
	}
}

// WithLogger sets the logger used for per-poll debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
