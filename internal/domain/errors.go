package domain

import "errors"

// Domain errors represent error conditions in the errship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("errship: already running")

	// ErrNotRunning is returned when Report(), Flush() or Stop() is called
	// outside an active buffer.
	ErrNotRunning = errors.New("errship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("errship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("errship: invalid configuration")

	// ErrInvalidRecord is returned when a reported record is missing required fields.
	ErrInvalidRecord = errors.New("errship: invalid record")
)
