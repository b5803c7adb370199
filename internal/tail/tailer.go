// Package tail follows an NDJSON log file line by line.
//
// The tailer reads complete lines and hands them to a caller-supplied
// handler. At end of file it waits for an fsnotify write event or a poll
// tick, whichever comes first; when fsnotify is unavailable it degrades to
// pure polling. Truncation restarts reading from the beginning, and a
// missing file is awaited rather than treated as an error.
package tail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/errship/internal/ports"
)

// DefaultPollInterval is the fallback wake-up period while waiting for data.
const DefaultPollInterval = 500 * time.Millisecond

// HandlerFunc receives one complete line, without the trailing newline.
// A non-nil error stops the tailer and is returned from Run.
type HandlerFunc func(line []byte) error

// Config holds tailer settings.
type Config struct {
	// Path is the file to follow
	Path string

	// PollInterval is the wake-up period when no fsnotify event arrives
	PollInterval time.Duration

	// FromStart reads the file from the beginning instead of the end
	FromStart bool

	// Once drains the lines currently in the file and returns
	Once bool
}

// Tailer follows one NDJSON file.
type Tailer struct {
	path      string
	poll      time.Duration
	fromStart bool
	once      bool
	logger    ports.Logger
}

// New creates a tailer for cfg.Path.
func New(cfg Config, logger ports.Logger) *Tailer {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Tailer{
		path:      cfg.Path,
		poll:      poll,
		fromStart: cfg.FromStart,
		once:      cfg.Once,
		logger:    logger,
	}
}

// Run follows the file until ctx is cancelled, the handler fails, or (in
// once mode) the available lines are drained.
func (t *Tailer) Run(ctx context.Context, handle HandlerFunc) error {
	var events chan fsnotify.Event
	var watchErrs chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Warn("fsnotify unavailable, polling only", ports.Err(err))
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(t.path)); err != nil {
			t.logger.Warn("watch directory failed, polling only", ports.Err(err))
		} else {
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	// Follow mode starts at the current end of the file; from-start and
	// once modes read what is already there.
	f, offset, err := t.open(ctx, events, watchErrs, !t.fromStart && !t.once)
	if err != nil {
		return err
	}
	defer func() { f.Close() }()

	t.logger.Info("tailing file",
		ports.String("path", t.path),
		ports.Int64("offset", offset),
	)

	reader := bufio.NewReader(f)
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := reader.ReadBytes('\n')
		if len(chunk) > 0 {
			offset += int64(len(chunk))
			pending = append(pending, chunk...)
		}

		if err == nil {
			line := bytes.TrimRight(pending, "\r\n")
			pending = nil
			if len(bytes.TrimSpace(line)) > 0 {
				if herr := handle(line); herr != nil {
					return herr
				}
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("read %s: %w", t.path, err)
		}

		// Caught up.
		if t.once {
			return nil
		}

		if werr := t.wait(ctx, events, watchErrs); werr != nil {
			return werr
		}

		info, statErr := os.Stat(t.path)
		switch {
		case statErr != nil:
			// Rotated away; reopen from the start of the replacement.
			t.logger.Info("file vanished, waiting for replacement", ports.String("path", t.path))
			f.Close()
			f, offset, err = t.open(ctx, events, watchErrs, false)
			if err != nil {
				return err
			}
			reader.Reset(f)
			pending = nil
		case info.Size() < offset:
			// Truncated in place; restart from the beginning.
			t.logger.Info("file truncated, restarting from start", ports.String("path", t.path))
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("seek %s: %w", t.path, err)
			}
			offset = 0
			reader.Reset(f)
			pending = nil
		}
	}
}

// open opens the target file, waiting for it to appear when following.
func (t *Tailer) open(ctx context.Context, events chan fsnotify.Event, watchErrs chan error, fromEnd bool) (*os.File, int64, error) {
	for {
		f, err := os.Open(t.path)
		if err == nil {
			var offset int64
			if fromEnd {
				offset, err = f.Seek(0, io.SeekEnd)
				if err != nil {
					f.Close()
					return nil, 0, fmt.Errorf("seek %s: %w", t.path, err)
				}
			}
			return f, offset, nil
		}
		if !os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("open %s: %w", t.path, err)
		}
		if t.once {
			return nil, 0, fmt.Errorf("open %s: %w", t.path, err)
		}

		if werr := t.wait(ctx, events, watchErrs); werr != nil {
			return nil, 0, werr
		}
	}
}

// wait blocks until the watched file changes, the poll interval elapses, or
// ctx is cancelled. Nil channels are never selected, so the poll timer
// carries the loop when fsnotify is unavailable.
func (t *Tailer) wait(ctx context.Context, events chan fsnotify.Event, watchErrs chan error) error {
	timer := time.NewTimer(t.poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Name == t.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				return nil
			}
		case werr, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			t.logger.Warn("fsnotify error", ports.Err(werr))
		case <-timer.C:
			return nil
		}
	}
}
