package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/errship/internal/domain"
	"github.com/bft-labs/errship/internal/metrics"
	"github.com/bft-labs/errship/internal/ports"
)

// KeyFunc derives the dedup key for a record. Two records mapping to the
// same key are treated as repeats of one logical error.
type KeyFunc func(domain.Record) string

// FlushEventEmitter is called after every flush attempt.
type FlushEventEmitter interface {
	OnFlushSuccess(meta ports.FlushMetadata, records, bytes int, duration time.Duration)
	OnFlushError(meta ports.FlushMetadata, err error, records int)
}

// BufferConfig holds the engine's tunables.
type BufferConfig struct {
	// KeyOf derives the dedup key. Required.
	KeyOf KeyFunc

	// MaxBytes is the estimated-size ceiling that triggers an automatic
	// flush. Zero disables the size trigger.
	MaxBytes int
}

// Buffer is the aggregation engine. It owns the in-memory dedup map,
// mirrors high-persistence records to the configured durable store, and
// hands detached snapshots to the sink on flush.
type Buffer struct {
	keyOf    KeyFunc
	maxBytes int

	sink    ports.SnapshotSink
	mirror  ports.Mirror
	logger  ports.Logger
	emitter FlushEventEmitter

	mu  sync.Mutex
	agg *domain.Aggregate

	// mirrorMu serializes read-modify-write cycles against the mirror so
	// concurrent reporters cannot interleave partial snapshot updates.
	mirrorMu sync.Mutex
}

// NewBuffer creates a buffer. mirror and emitter may be nil.
func NewBuffer(cfg BufferConfig, sink ports.SnapshotSink, mirror ports.Mirror, logger ports.Logger, emitter FlushEventEmitter) *Buffer {
	return &Buffer{
		keyOf:    cfg.KeyOf,
		maxBytes: cfg.MaxBytes,
		sink:     sink,
		mirror:   mirror,
		logger:   logger,
		emitter:  emitter,
		agg:      domain.NewAggregate(),
	}
}

// Record accepts one error occurrence. A repeated dedup key advances its
// counter only; a new key inserts the record with count 1. High-persistence
// records are synchronously mirrored before the size check. When the
// estimated map footprint exceeds the ceiling the buffer flushes before
// returning, and any sink failure from that flush is returned to the caller.
func (b *Buffer) Record(ctx context.Context, rec domain.Record) error {
	if err := rec.Normalize(); err != nil {
		return err
	}
	key := b.keyOf(rec)

	b.mu.Lock()
	created := b.agg.Observe(key, rec)
	entries := b.agg.Len()
	size := b.agg.EstimatedBytes()
	b.mu.Unlock()

	metrics.RecordObserved(string(rec.Persistence))
	metrics.BufferSize(entries, size)

	b.logger.Debug("record observed",
		ports.String("key", key),
		ports.Bool("created", created),
		ports.Int("entries", entries),
		ports.Int("bytes", size),
	)

	if rec.Persistence == domain.PersistenceHigh && b.mirror != nil {
		if err := b.mirrorObserve(ctx, key, rec); err != nil {
			return err
		}
	}

	if b.maxBytes > 0 && size > b.maxBytes {
		return b.flush(ctx, ports.FlushSize)
	}

	return nil
}

// mirrorObserve folds one high-persistence occurrence into the durable
// snapshot: read the stored blob, increment the matching key or insert the
// record, write the whole blob back. The durable counter is maintained
// independently of the in-memory one and may diverge from it.
func (b *Buffer) mirrorObserve(ctx context.Context, key string, rec domain.Record) error {
	b.mirrorMu.Lock()
	defer b.mirrorMu.Unlock()

	storageKey := b.mirror.StorageKey()

	blob, err := b.mirror.GetItem(ctx, storageKey)
	if err != nil {
		metrics.MirrorError("get")
		return fmt.Errorf("mirror read: %w", err)
	}

	snap, err := domain.DecodeSnapshot(blob)
	if err != nil {
		metrics.MirrorError("decode")
		return fmt.Errorf("mirror decode: %w", err)
	}

	if existing, ok := snap[key]; ok {
		existing.Count++
	} else {
		cp := rec
		cp.Count = 1
		snap[key] = &cp
	}

	out, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("mirror encode: %w", err)
	}

	if err := b.mirror.SetItem(ctx, storageKey, out); err != nil {
		metrics.MirrorError("set")
		return fmt.Errorf("mirror write: %w", err)
	}

	return nil
}

// Flush delivers the buffered snapshot to the sink.
// An empty buffer is a no-op and never invokes the sink.
func (b *Buffer) Flush(ctx context.Context, reason ports.FlushReason) error {
	return b.flush(ctx, reason)
}

func (b *Buffer) flush(ctx context.Context, reason ports.FlushReason) error {
	// Swap before the sink call so records arriving during delivery
	// accumulate into the fresh map instead of being lost or re-sent.
	b.mu.Lock()
	if b.agg.Empty() {
		b.mu.Unlock()
		return nil
	}
	detached := b.agg
	b.agg = domain.NewAggregate()
	b.mu.Unlock()

	metrics.BufferSize(0, 0)

	records := detached.Len()
	bytes := detached.EstimatedBytes()
	meta := ports.FlushMetadata{
		FlushID: uuid.NewString(),
		Reason:  reason,
	}

	b.logger.Info("flush started",
		ports.String("flush_id", meta.FlushID),
		ports.String("reason", string(reason)),
		ports.Int("records", records),
		ports.Int("bytes", bytes),
	)

	start := time.Now()
	err := b.sink.Send(ctx, detached.Records(), meta)
	duration := time.Since(start)

	metrics.FlushObserved(string(reason), records, duration, err)

	if err != nil {
		// The detached snapshot is not re-queued. High-persistence records
		// remain in the mirror and are recovered at next startup.
		b.logger.Error("flush failed, snapshot dropped",
			ports.String("flush_id", meta.FlushID),
			ports.Int("records", records),
			ports.Err(err),
		)
		if b.emitter != nil {
			b.emitter.OnFlushError(meta, err, records)
		}
		return fmt.Errorf("flush sink: %w", err)
	}

	b.logger.Info("flush completed",
		ports.String("flush_id", meta.FlushID),
		ports.Int("records", records),
		ports.Duration("duration", duration),
	)
	if b.emitter != nil {
		b.emitter.OnFlushSuccess(meta, records, bytes, duration)
	}

	if b.mirror != nil {
		b.mirrorMu.Lock()
		rmErr := b.mirror.RemoveItem(ctx, b.mirror.StorageKey())
		b.mirrorMu.Unlock()
		if rmErr != nil {
			metrics.MirrorError("remove")
			b.logger.Error("mirror clear after flush failed", ports.Err(rmErr))
			return fmt.Errorf("mirror clear: %w", rmErr)
		}
	}

	return nil
}

// Reconcile merges a previously persisted snapshot into the in-memory map.
// Called once at startup: colliding keys advance the in-memory counter,
// absent keys are inserted with their stored counts. The blob is left in
// place; the next successful flush removes it.
func (b *Buffer) Reconcile(ctx context.Context) error {
	if b.mirror == nil {
		return nil
	}

	b.mirrorMu.Lock()
	blob, err := b.mirror.GetItem(ctx, b.mirror.StorageKey())
	b.mirrorMu.Unlock()
	if err != nil {
		metrics.MirrorError("get")
		return fmt.Errorf("mirror read: %w", err)
	}
	if len(blob) == 0 {
		return nil
	}

	snap, err := domain.DecodeSnapshot(blob)
	if err != nil {
		metrics.MirrorError("decode")
		return fmt.Errorf("mirror decode: %w", err)
	}

	b.mu.Lock()
	for key, rec := range snap {
		b.agg.Absorb(key, *rec)
	}
	entries := b.agg.Len()
	size := b.agg.EstimatedBytes()
	b.mu.Unlock()

	metrics.BufferSize(entries, size)

	b.logger.Info("recovered persisted records",
		ports.Int("records", len(snap)),
		ports.Int("entries", entries),
	)
	return nil
}

// Len returns the number of distinct buffered keys.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.agg.Len()
}

// EstimatedBytes returns the approximate serialized size of the buffered map.
func (b *Buffer) EstimatedBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.agg.EstimatedBytes()
}
