package errship

import (
	"time"

	"github.com/bft-labs/errship/internal/app"
	"github.com/bft-labs/errship/internal/ports"
)

// StateChangeEvent is emitted when the lifecycle state changes.
type StateChangeEvent struct {
	// Previous is the state before the transition
	Previous State

	// Current is the state after the transition
	Current State

	// Reason describes why the transition happened
	Reason string
}

// FlushSuccessEvent is emitted after a snapshot is delivered to the sink.
type FlushSuccessEvent struct {
	// FlushID uniquely identifies the flush
	FlushID string

	// Reason is what triggered the flush
	Reason FlushReason

	// Records is the number of distinct records delivered
	Records int

	// Bytes is the estimated serialized size of the delivered snapshot
	Bytes int

	// Duration is the time spent in the sink call
	Duration time.Duration
}

// FlushErrorEvent is emitted when a sink delivery fails.
// The snapshot is not re-queued; high-persistence records remain in the
// mirror until the next successful flush.
type FlushErrorEvent struct {
	// FlushID uniquely identifies the flush
	FlushID string

	// Reason is what triggered the flush
	Reason FlushReason

	// Error is the sink failure
	Error error

	// Records is the number of records lost from memory
	Records int
}

// EventHandler receives notifications about buffer operations.
// Handlers are called synchronously from the reporting and flushing
// goroutines and should return quickly.
type EventHandler interface {
	// OnStateChange is called when the lifecycle state changes.
	OnStateChange(event StateChangeEvent)

	// OnFlushSuccess is called after each successful flush.
	OnFlushSuccess(event FlushSuccessEvent)

	// OnFlushError is called after each failed flush.
	OnFlushError(event FlushErrorEvent)
}

// BaseEventHandler provides no-op implementations of all EventHandler
// methods. Embed it to implement only the events you care about.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(event StateChangeEvent) {}

// OnFlushSuccess does nothing.
func (BaseEventHandler) OnFlushSuccess(event FlushSuccessEvent) {}

// OnFlushError does nothing.
func (BaseEventHandler) OnFlushError(event FlushErrorEvent) {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnFlushSuccess(meta ports.FlushMetadata, records, bytes int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushSuccess(FlushSuccessEvent{
		FlushID:  meta.FlushID,
		Reason:   meta.Reason,
		Records:  records,
		Bytes:    bytes,
		Duration: duration,
	})
}

func (e *eventEmitterWrapper) OnFlushError(meta ports.FlushMetadata, err error, records int) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushError(FlushErrorEvent{
		FlushID: meta.FlushID,
		Reason:  meta.Reason,
		Error:   err,
		Records: records,
	})
}
