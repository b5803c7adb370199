package errship

import (
	"context"
	"sync"

	"github.com/bft-labs/errship/internal/app"
	"github.com/bft-labs/errship/internal/domain"
	"github.com/bft-labs/errship/internal/ports"
)

// Errship is an in-process error aggregation buffer that can be embedded in
// other applications. Use New() to create an instance, then Start() to
// activate it and hand its Report method to every component that needs to
// report errors.
type Errship struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	buffer    *app.Buffer
	scheduler *app.Scheduler
	logger    ports.Logger

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Errship instance with the given configuration.
// The instance is created in StateStopped; call Start() to activate it.
// Returns an error if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Errship, error) {
	// Set defaults
	cfg.SetDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Create event emitter wrapper
	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	// Create lifecycle manager
	lifecycle := app.NewLifecycle(o.logger, emitter)

	// Create the aggregation engine and its periodic trigger
	buffer := app.NewBuffer(app.BufferConfig{
		KeyOf:    app.KeyFunc(cfg.GetKey),
		MaxBytes: cfg.MaxSize,
	}, ports.SinkFunc(cfg.OnFlush), o.mirror, o.logger, emitter)

	scheduler := app.NewScheduler(cfg.FlushInterval, buffer, o.logger)

	return &Errship{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		buffer:    buffer,
		scheduler: scheduler,
		logger:    o.logger,
	}, nil
}

// Start activates the buffer: persisted high-persistence records are merged
// back into memory and the periodic flush begins. Returns an error if
// already running. The provided context bounds the buffer's lifetime.
func (e *Errship) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	if err := e.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	// Create cancellable context
	runCtx, cancel := context.WithCancel(ctx)
	e.ctx = runCtx
	e.cancel = cancel
	e.lifecycle.SetCancel(cancel)

	// Startup reconciliation is best-effort: on a failed mirror read the
	// blob stays in place and is retried at the next start.
	if err := e.buffer.Reconcile(runCtx); err != nil {
		e.logger.Warn("startup reconciliation failed", ports.Err(err))
	}

	// Run the periodic flush under lifecycle worker tracking
	e.lifecycle.AddWorker()
	go func() {
		defer e.lifecycle.WorkerDone()
		e.scheduler.Run(runCtx)
	}()

	return e.lifecycle.TransitionTo(app.StateRunning, "buffer active")
}

// Report submits one error occurrence. A repeated dedup key advances its
// counter; a new key is buffered with count 1. High-persistence records are
// synchronously mirrored when a mirror is configured, and a report that
// pushes the buffer over its size ceiling flushes before returning.
// Returns ErrNotRunning outside an active buffer.
func (e *Errship) Report(ctx context.Context, rec Record) error {
	if !e.lifecycle.IsRunning() {
		return domain.ErrNotRunning
	}
	return e.buffer.Record(ctx, rec)
}

// Flush delivers the buffered snapshot to the sink immediately.
// An empty buffer is a no-op. Returns ErrNotRunning outside an active buffer.
func (e *Errship) Flush(ctx context.Context) error {
	if !e.lifecycle.IsRunning() {
		return domain.ErrNotRunning
	}
	return e.buffer.Flush(ctx, ports.FlushManual)
}

// Stop gracefully shuts down the buffer: the periodic trigger is cancelled,
// then the remaining records are drained through one final flush.
// Waits up to 30 seconds before forcing shutdown.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced, or the
// final flush error.
func (e *Errship) Stop() error {
	e.mu.Lock()

	if !e.lifecycle.CanStop() {
		e.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := e.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		e.mu.Unlock()
		return err
	}

	e.mu.Unlock()

	// Cancel the periodic trigger before draining so no tick races the
	// final flush.
	e.lifecycle.Cancel()
	waitErr := e.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	// The run context is already cancelled; the drain gets its own deadline.
	flushCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	flushErr := e.buffer.Flush(flushCtx, ports.FlushShutdown)
	cancel()
	if flushErr != nil {
		e.logger.Error("shutdown flush failed", ports.Err(flushErr))
	}

	_ = e.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")

	if waitErr != nil {
		return waitErr
	}
	return flushErr
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (e *Errship) Status() State {
	return convertState(e.lifecycle.State())
}

// Buffered returns the number of distinct dedup keys currently held.
func (e *Errship) Buffered() int {
	return e.buffer.Len()
}

// BufferedBytes returns the estimated serialized size of the buffered map.
func (e *Errship) BufferedBytes() int {
	return e.buffer.EstimatedBytes()
}
