package app

import (
	"context"
	"time"

	"github.com/bft-labs/errship/internal/ports"
)

// Scheduler fires the periodic flush. It runs while the buffer is active and
// exits when its context is cancelled, so no timer survives teardown.
// Interval flushes are independent of the buffer's own size trigger.
type Scheduler struct {
	interval time.Duration
	buffer   *Buffer
	logger   ports.Logger
}

// NewScheduler creates a scheduler flushing buffer every interval.
func NewScheduler(interval time.Duration, buffer *Buffer, logger ports.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		buffer:   buffer,
		logger:   logger,
	}
}

// Run drives the flush loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("periodic flush enabled", ports.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("periodic flush stopped")
			return
		case <-ticker.C:
			// A failed tick is logged and retried at the next one; the
			// dropped snapshot is not re-queued.
			if err := s.buffer.Flush(ctx, ports.FlushInterval); err != nil {
				s.logger.Error("periodic flush failed", ports.Err(err))
			}
		}
	}
}
