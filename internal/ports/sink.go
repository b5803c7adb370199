package ports

import (
	"context"

	"github.com/bft-labs/errship/internal/domain"
)

// FlushReason identifies what triggered a flush.
type FlushReason string

const (
	// FlushInterval is a flush fired by the periodic scheduler.
	FlushInterval FlushReason = "interval"

	// FlushSize is a flush fired by the buffer exceeding its size ceiling.
	FlushSize FlushReason = "size"

	// FlushManual is a flush requested explicitly by the caller.
	FlushManual FlushReason = "manual"

	// FlushShutdown is the final drain performed during Stop().
	FlushShutdown FlushReason = "shutdown"
)

// FlushMetadata provides context for one flush delivery.
// It travels through logs, events and metrics; sinks may ignore it.
type FlushMetadata struct {
	// FlushID uniquely identifies this flush for tracing
	FlushID string

	// Reason is what triggered the flush
	Reason FlushReason
}

// SnapshotSink receives the captured snapshot on every flush.
// The buffer has already detached the snapshot before calling Send: a failed
// delivery loses it from memory, so implementations needing durability must
// be robust on their own.
type SnapshotSink interface {
	// Send delivers one snapshot. Returns nil on success, error on failure.
	Send(ctx context.Context, snap domain.Snapshot, meta FlushMetadata) error
}

// SinkFunc adapts a plain function to a SnapshotSink.
type SinkFunc func(ctx context.Context, snap domain.Snapshot, meta FlushMetadata) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, snap domain.Snapshot, meta FlushMetadata) error {
	return f(ctx, snap, meta)
}
