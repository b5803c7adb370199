package errship_test

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/errship/pkg/errship"
)

// ExampleNew demonstrates how to embed errship in your application.
func ExampleNew() {
	cfg := errship.Config{
		GetKey: func(r errship.Record) string { return r.Name },
		OnFlush: func(ctx context.Context, snap errship.Snapshot, meta errship.FlushMetadata) error {
			for key, rec := range snap {
				fmt.Printf("%s occurred %d time(s)\n", key, rec.Count)
			}
			return nil
		},
		FlushInterval: time.Minute,
	}

	buf, err := errship.New(cfg)
	if err != nil {
		fmt.Printf("failed to create errship: %v\n", err)
		return
	}

	ctx := context.Background()
	if err := buf.Start(ctx); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	// Report the same logical error twice
	rec := errship.Record{Name: "NetworkError", Message: "connection refused"}
	_ = buf.Report(ctx, rec)
	_ = buf.Report(ctx, rec)

	// Stop drains the buffer through one final flush
	_ = buf.Stop()

	// Output: NetworkError occurred 2 time(s)
}

// Example_withEventHandler demonstrates how to receive errship events.
func Example_withEventHandler() {
	handler := &flushLogger{}

	cfg := errship.Config{
		GetKey: func(r errship.Record) string { return r.Name },
		OnFlush: func(ctx context.Context, snap errship.Snapshot, meta errship.FlushMetadata) error {
			return nil
		},
	}

	buf, err := errship.New(cfg, errship.WithEventHandler(handler))
	if err != nil {
		fmt.Printf("failed to create errship: %v\n", err)
		return
	}

	ctx := context.Background()
	_ = buf.Start(ctx)
	_ = buf.Report(ctx, errship.Record{Name: "DiskError", Message: "no space left"})
	_ = buf.Flush(ctx)
	_ = buf.Stop()

	// Output: flushed 1 record(s)
}

// flushLogger implements errship.EventHandler for flush outcomes only.
type flushLogger struct {
	errship.BaseEventHandler
}

func (h *flushLogger) OnFlushSuccess(e errship.FlushSuccessEvent) {
	if e.Records > 0 {
		fmt.Printf("flushed %d record(s)\n", e.Records)
	}
}
