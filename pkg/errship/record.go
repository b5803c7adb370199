package errship

import (
	"github.com/bft-labs/errship/internal/domain"
	"github.com/bft-labs/errship/internal/ports"
	"github.com/bft-labs/errship/pkg/log"
)

// Record represents a single accumulated error. Count starts at 1 on first
// observation and advances by one per repeat under the same dedup key.
type Record = domain.Record

// Snapshot is a captured mapping of dedup key to record, handed to the
// flush sink at a single point in time.
type Snapshot = domain.Snapshot

// Persistence controls whether a record is durably mirrored while buffered.
type Persistence = domain.Persistence

// Persistence levels.
const (
	PersistenceLow  = domain.PersistenceLow
	PersistenceHigh = domain.PersistenceHigh
)

// FlushReason identifies what triggered a flush.
type FlushReason = ports.FlushReason

// Flush reasons.
const (
	FlushReasonInterval = ports.FlushInterval
	FlushReasonSize     = ports.FlushSize
	FlushReasonManual   = ports.FlushManual
	FlushReasonShutdown = ports.FlushShutdown
)

// FlushMetadata provides context for one flush delivery.
type FlushMetadata = ports.FlushMetadata

// Mirror is the durable store interface for high-persistence records.
// Implementations live under pkg/mirror, or supply your own.
type Mirror = ports.Mirror

// Logger is the structured logging interface accepted by WithLogger.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Sentinel errors returned by the public API, checkable with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = domain.ErrAlreadyRunning

	// ErrNotRunning is returned when Report(), Flush() or Stop() is called
	// outside an active buffer.
	ErrNotRunning = domain.ErrNotRunning

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = domain.ErrShutdownTimeout

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = domain.ErrInvalidConfig

	// ErrInvalidRecord is returned when a reported record is missing required fields.
	ErrInvalidRecord = domain.ErrInvalidRecord
)
