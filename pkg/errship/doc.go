// Package errship provides an embeddable in-process error aggregation buffer.
//
// Errship collects discrete error occurrences, deduplicates them by a
// caller-supplied key, tracks repeat counts, optionally mirrors
// high-persistence errors to a durable store, and flushes the accumulated
// set to a caller-supplied sink periodically or when the buffered map grows
// past a size ceiling.
//
// # Basic Usage
//
// Construct the buffer once and hand its Report method to every component
// that needs to report errors:
//
//	cfg := errship.Config{
//	    GetKey: func(r errship.Record) string { return r.Name },
//	    OnFlush: func(ctx context.Context, snap errship.Snapshot, meta errship.FlushMetadata) error {
//	        return ship(ctx, snap)
//	    },
//	}
//
//	buf, err := errship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := buf.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = buf.Report(ctx, errship.Record{
//	    Name:    "NetworkError",
//	    Message: "connection refused",
//	})
//
//	// ... run until shutdown ...
//
//	if err := buf.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Deduplication
//
// Two reports whose records map to the same GetKey result are one buffered
// entry whose count equals the number of reports. Only the counter advances
// on repeats; the first record's fields win.
//
// # Durable Mirroring
//
// Records reported with PersistenceHigh are written to the configured mirror
// as they arrive, and recovered into memory at the next Start if the process
// dies before a flush. See [WithMirror] and the pkg/mirror adapters. Without
// a mirror, high-persistence records simply stay in memory like the rest.
//
// # Flushing
//
// A flush detaches the buffered map and hands it to OnFlush; reports
// arriving during the sink call accumulate into a fresh map. A failed sink
// loses the detached snapshot from memory (it is not re-queued) but leaves
// the mirror blob in place. Flushes fire on the configured interval, when
// the estimated footprint exceeds MaxSize, on [Errship.Flush], and once more
// during [Errship.Stop].
//
// # Event Handling
//
// To observe state transitions and flush outcomes, implement [EventHandler]
// (or embed [BaseEventHandler]) and pass it via [WithEventHandler]. Events
// are called synchronously; implementations should return quickly.
//
// # Dependency Injection
//
// For testing, inject custom implementations of external dependencies:
//
//	buf, err := errship.New(cfg,
//	    errship.WithMirror(fakeMirror),
//	    errship.WithLogger(customLogger),
//	)
package errship
