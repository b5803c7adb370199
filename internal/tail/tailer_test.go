package tail

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/errship/internal/ports"
)

type testLogger struct{}

func (testLogger) Debug(msg string, fields ...ports.Field) {}
func (testLogger) Info(msg string, fields ...ports.Field)  {}
func (testLogger) Warn(msg string, fields ...ports.Field)  {}
func (testLogger) Error(msg string, fields ...ports.Field) {}

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) handle(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(line))
	return nil
}

func (c *lineCollector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *lineCollector) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if len(c.got()) >= n {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d lines, have %v", n, c.got())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func writeLines(t *testing.T, path string, lines string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(lines); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestTailerOnceDrainsExistingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.ndjson")
	writeLines(t, path, "{\"name\":\"A\"}\n{\"name\":\"B\"}\n")

	c := &lineCollector{}
	tl := New(Config{Path: path, Once: true}, testLogger{})

	if err := tl.Run(context.Background(), c.handle); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := c.got()
	if len(got) != 2 || got[0] != `{"name":"A"}` || got[1] != `{"name":"B"}` {
		t.Errorf("lines = %v", got)
	}
}

func TestTailerOnceMissingFile(t *testing.T) {
	tl := New(Config{
		Path: filepath.Join(t.TempDir(), "absent.ndjson"),
		Once: true,
	}, testLogger{})

	if err := tl.Run(context.Background(), (&lineCollector{}).handle); err == nil {
		t.Fatal("Run expected error for missing file in once mode")
	}
}

func TestTailerOnceSkipsBlankAndPartialLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.ndjson")
	writeLines(t, path, "{\"name\":\"A\"}\n\n{\"name\":\"partial\"")

	c := &lineCollector{}
	tl := New(Config{Path: path, Once: true}, testLogger{})

	if err := tl.Run(context.Background(), c.handle); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := c.got()
	if len(got) != 1 || got[0] != `{"name":"A"}` {
		t.Errorf("lines = %v, want only the complete non-blank line", got)
	}
}

func TestTailerFollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.ndjson")
	writeLines(t, path, "{\"name\":\"before\"}\n")

	c := &lineCollector{}
	tl := New(Config{Path: path, PollInterval: 10 * time.Millisecond}, testLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx, c.handle) }()

	// Give the tailer time to seek to the end, then append.
	time.Sleep(50 * time.Millisecond)
	writeLines(t, path, "{\"name\":\"after\"}\n")

	c.waitFor(t, 1)
	got := c.got()
	if got[0] != `{"name":"after"}` {
		t.Errorf("line = %q, want the appended line only", got[0])
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestTailerFromStartThenFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.ndjson")
	writeLines(t, path, "{\"name\":\"old\"}\n")

	c := &lineCollector{}
	tl := New(Config{Path: path, PollInterval: 10 * time.Millisecond, FromStart: true}, testLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tl.Run(ctx, c.handle) }()

	c.waitFor(t, 1)
	writeLines(t, path, "{\"name\":\"new\"}\n")
	c.waitFor(t, 2)

	got := c.got()
	if got[0] != `{"name":"old"}` || got[1] != `{"name":"new"}` {
		t.Errorf("lines = %v", got)
	}
}

func TestTailerRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.ndjson")
	writeLines(t, path, "{\"name\":\"one\"}\n")

	c := &lineCollector{}
	tl := New(Config{Path: path, PollInterval: 10 * time.Millisecond, FromStart: true}, testLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tl.Run(ctx, c.handle) }()

	c.waitFor(t, 1)

	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	// A shorter file than the consumed offset resets the reader.
	time.Sleep(50 * time.Millisecond)
	writeLines(t, path, "{\"name\":\"two\"}\n")

	c.waitFor(t, 2)
	got := c.got()
	if got[1] != `{"name":"two"}` {
		t.Errorf("post-truncation line = %q", got[1])
	}
}

func TestTailerHandlerErrorStopsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.ndjson")
	writeLines(t, path, "{\"name\":\"A\"}\n")

	wantErr := errors.New("handler failed")
	tl := New(Config{Path: path, Once: true}, testLogger{})

	err := tl.Run(context.Background(), func(line []byte) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("Run = %v, want handler error", err)
	}
}
