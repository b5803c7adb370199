package errship

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/errship/internal/domain"
)

// Default configuration values.
const (
	// DefaultMaxSize is the estimated-footprint ceiling that triggers an
	// automatic flush (10 MiB).
	DefaultMaxSize = 10 << 20

	// DefaultFlushInterval is the periodic flush period.
	DefaultFlushInterval = 60 * time.Second
)

// KeyFunc derives the dedup key for a record. Two records mapping to the
// same key are counted as repeats of one logical error.
type KeyFunc func(Record) string

// FlushFunc receives the captured snapshot on every flush. The buffer has
// already detached the snapshot, so a failed call loses it from memory.
type FlushFunc func(ctx context.Context, snap Snapshot, meta FlushMetadata) error

// Config holds the configuration for an error buffer.
// GetKey and OnFlush are required; the rest defaults via SetDefaults.
type Config struct {
	// GetKey derives the dedup key for each reported record. Required.
	GetKey KeyFunc

	// OnFlush is the flush sink. Required.
	OnFlush FlushFunc

	// MaxSize is the size-triggered flush ceiling in bytes, measured
	// against the estimated serialized footprint of the buffered map.
	// The ceiling is soft: the triggering record is buffered first, then
	// flushed with everything else. Defaults to 10 MiB.
	MaxSize int

	// FlushInterval is the periodic flush period. Defaults to 60s.
	FlushInterval time.Duration
}

// SetDefaults fills in default values for unset fields.
func (c *Config) SetDefaults() {
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}
}

// Validate checks the configuration for errors.
// Call SetDefaults first (New does both).
func (c *Config) Validate() error {
	if c.GetKey == nil {
		return fmt.Errorf("%w: GetKey is required", domain.ErrInvalidConfig)
	}
	if c.OnFlush == nil {
		return fmt.Errorf("%w: OnFlush is required", domain.ErrInvalidConfig)
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("%w: MaxSize must not be negative", domain.ErrInvalidConfig)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: FlushInterval must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
