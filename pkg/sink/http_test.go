package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bft-labs/errship/internal/domain"
	"github.com/bft-labs/errship/internal/ports"
	"github.com/bft-labs/errship/pkg/log"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		"NetworkError": {
			Name:        "NetworkError",
			Message:     "connection refused",
			Count:       3,
			Persistence: domain.PersistenceLow,
		},
	}
}

func TestHTTPSinkSend(t *testing.T) {
	var gotPath, gotAuth, gotDelivery, gotCount string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDelivery = r.Header.Get("X-Errship-Delivery-Id")
		gotCount = r.Header.Get("X-Errship-Record-Count")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.Client(), Metadata{
		ServiceURL: srv.URL,
		AuthKey:    "secret",
	}, log.NewNoopLogger())

	meta := ports.FlushMetadata{FlushID: "flush-1", Reason: ports.FlushInterval}
	if err := s.Send(context.Background(), testSnapshot(), meta); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/v1/errors/batch" {
		t.Errorf("path = %q, want %q", gotPath, "/v1/errors/batch")
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotDelivery == "" {
		t.Error("X-Errship-Delivery-Id header missing")
	}
	if gotCount != "1" {
		t.Errorf("X-Errship-Record-Count = %q, want %q", gotCount, "1")
	}

	var payload struct {
		FlushID string                    `json:"flush_id"`
		Reason  string                    `json:"reason"`
		Records map[string]*domain.Record `json:"records"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload.FlushID != "flush-1" {
		t.Errorf("flush_id = %q, want %q", payload.FlushID, "flush-1")
	}
	if payload.Reason != "interval" {
		t.Errorf("reason = %q, want %q", payload.Reason, "interval")
	}
	rec, ok := payload.Records["NetworkError"]
	if !ok {
		t.Fatal("records missing NetworkError entry")
	}
	if rec.Count != 3 {
		t.Errorf("record count = %d, want 3", rec.Count)
	}
}

func TestHTTPSinkServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.Client(), Metadata{ServiceURL: srv.URL}, log.NewNoopLogger())

	err := s.Send(context.Background(), testSnapshot(), ports.FlushMetadata{})
	if err == nil {
		t.Fatal("Send expected error on 401 but got nil")
	}
}

func TestHTTPSinkEmptySnapshotSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.Client(), Metadata{ServiceURL: srv.URL}, log.NewNoopLogger())

	if err := s.Send(context.Background(), domain.Snapshot{}, ports.FlushMetadata{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if called {
		t.Error("empty snapshot produced an HTTP request")
	}
}
