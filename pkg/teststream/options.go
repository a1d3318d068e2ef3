package teststream

import (
	"io"
	"log/slog"

	"github.com/roach88/pollscript/pkg/script"
)

// Option configures a Stream.
type Option func(*config)

type config struct {
	policy script.Policy
	fatal  bool
	logger *slog.Logger
}

func defaultConfig() config {
	return config{
		policy: script.DelegateToInner,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithPolicy sets the exhaustion policy of the pull script.
func WithPolicy(p script.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithFatalErrors makes an Err step terminal. The failure is returned once
// and every later pull reports End.
func WithFatalErrors() Option {
	return func(c *config) {
		c.fatal = true
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
