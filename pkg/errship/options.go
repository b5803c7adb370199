package errship

import (
	"github.com/bft-labs/errship/internal/ports"
	"github.com/bft-labs/errship/pkg/log"
)

// Option configures optional behavior of an Errship instance.
type Option func(*options)

// options holds the optional configuration for an Errship instance.
type options struct {
	logger       ports.Logger
	mirror       ports.Mirror
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMirror sets the durable store for high-persistence records.
// Without a mirror, high-persistence records behave exactly like
// low-persistence ones: in memory only until flushed.
func WithMirror(m Mirror) Option {
	return func(o *options) {
		o.mirror = m
	}
}

// WithEventHandler sets a handler for errship events.
// Events are called synchronously from the reporting and flushing
// goroutines. If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
