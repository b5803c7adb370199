package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/bft-labs/errship/internal/domain"
	"github.com/bft-labs/errship/internal/ports"
)

// flushLine is one NDJSON line emitted per flush.
type flushLine struct {
	SentAt  time.Time       `json:"sent_at"`
	FlushID string          `json:"flush_id,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Records domain.Snapshot `json:"records"`
}

// WriterSink writes each snapshot as one NDJSON line to an io.Writer.
// Writes are serialized with a mutex so concurrent flush paths (interval
// and size triggers) never interleave output.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send writes one snapshot line.
func (s *WriterSink) Send(ctx context.Context, snap domain.Snapshot, meta ports.FlushMetadata) error {
	line, err := json.Marshal(flushLine{
		SentAt:  time.Now().UTC(),
		FlushID: meta.FlushID,
		Reason:  string(meta.Reason),
		Records: snap,
	})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(line)
	return err
}
