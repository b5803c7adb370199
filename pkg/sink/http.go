package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/errship/internal/domain"
	"github.com/bft-labs/errship/internal/ports"
	"github.com/bft-labs/errship/pkg/log"
)

const errorBatchEndpoint = "/v1/errors/batch"

// Metadata provides context for HTTP deliveries.
type Metadata struct {
	// ServiceURL is the base URL of the collector service
	ServiceURL string

	// AuthKey is the API authentication key
	AuthKey string

	// Hostname identifies the reporting host, if set
	Hostname string
}

// batchPayload is the JSON body posted per flush.
type batchPayload struct {
	SentAt  time.Time                 `json:"sent_at"`
	FlushID string                    `json:"flush_id,omitempty"`
	Reason  string                    `json:"reason,omitempty"`
	Records map[string]*domain.Record `json:"records"`
}

// HTTPSink delivers snapshots to a remote collector as JSON batches.
type HTTPSink struct {
	client HTTPClient
	meta   Metadata
	logger log.Logger
}

// NewHTTPSink creates an HTTP sink. Its Send method matches the buffer's
// flush signature, so it plugs into errship.Config.OnFlush directly.
func NewHTTPSink(client HTTPClient, meta Metadata, logger log.Logger) *HTTPSink {
	return &HTTPSink{
		client: client,
		meta:   meta,
		logger: logger,
	}
}

// Send posts one snapshot to the collector.
func (s *HTTPSink) Send(ctx context.Context, snap domain.Snapshot, meta ports.FlushMetadata) error {
	if len(snap) == 0 {
		return nil
	}

	payload := batchPayload{
		SentAt:  time.Now().UTC(),
		FlushID: meta.FlushID,
		Reason:  string(meta.Reason),
		Records: snap,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	url := s.meta.ServiceURL + errorBatchEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.meta.AuthKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Errship-Delivery-Id", uuid.NewString())
	req.Header.Set("X-Errship-Record-Count", strconv.Itoa(len(snap)))
	if s.meta.Hostname != "" {
		req.Header.Set("X-Errship-Hostname", s.meta.Hostname)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	s.logger.Debug("batch delivered",
		log.String("flush_id", meta.FlushID),
		log.Int("records", len(snap)),
	)
	return nil
}
