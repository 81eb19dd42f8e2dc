package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hearthkeep/hub/internal/integration"
	"github.com/hearthkeep/hub/internal/lifecycle"
)

// Runner drives one integration.Runnable through §4.6's lifecycle:
// start → initialize → loop { do_work; on exc → record_error; sleep(interval) } → cleanup.
// It implements lifecycle.Service and HealthStatusProvider.
type Runner struct {
	runnable integration.Runnable
	client   integration.RemoteClient
	health   *HealthStatus

	// initialize/cleanup are optional hooks a gateway's Runnable can carry
	// beyond the DoWork contract; unset unless the concrete Runnable
	// implements Initializer/Cleaner below.
	initialize func(ctx context.Context) error
	cleanup    func()

	stopped atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// Initializer is an optional extension a Runnable may implement for
// one-time setup before the first do_work call.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Cleaner is an optional extension a Runnable may implement for teardown
// after the loop exits, regardless of why.
type Cleaner interface {
	Cleanup()
}

var _ lifecycle.Service = (*Runner)(nil)
var _ HealthStatusProvider = (*Runner)(nil)

// NewRunner wraps runnable for supervised execution against client.
func NewRunner(runnable integration.Runnable, client integration.RemoteClient) *Runner {
	r := &Runner{
		runnable: runnable,
		client:   client,
		health:   NewHealthStatus(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if init, ok := runnable.(Initializer); ok {
		r.initialize = init.Initialize
	}
	if cl, ok := runnable.(Cleaner); ok {
		r.cleanup = cl.Cleanup
	}
	return r
}

func (r *Runner) Name() string { return r.runnable.ID() }

func (r *Runner) ID() string { return r.runnable.ID() }

// Health returns a point-in-time snapshot of this runner's health.
func (r *Runner) Health() Snapshot { return r.health.Snapshot() }

// AddApiSource registers a remote endpoint this runner's do_work reports
// call outcomes for.
func (r *Runner) AddApiSource(source *ApiSourceHealth) { r.health.AddApiSource(source) }

// Start launches the supervised loop in its own goroutine and returns
// immediately once initialize (if any) succeeds.
func (r *Runner) Start(ctx context.Context) error {
	if r.initialize != nil {
		if err := r.initialize(ctx); err != nil {
			r.health.RecordError(fmt.Errorf("initialize: %w", err))
			return err
		}
	}
	go r.loop(ctx)
	return nil
}

// Stop closes the stop channel; the loop exits once its current do_work call
// returns (immediately, if it is sleeping) and Stop blocks until it has.
func (r *Runner) Stop(ctx context.Context) error {
	r.once.Do(func() { close(r.stopCh) })
	select {
	case <-r.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.doneCh)
	defer r.runCleanup()

	for {
		if r.stopped.Load() {
			return
		}

		r.tick(ctx)

		select {
		case <-ctx.Done():
			r.health.RecordCancelled()
			return
		case <-r.stopCh:
			r.stopped.Store(true)
			return
		case <-time.After(r.runnable.Interval()):
		}
	}
}

// tick runs exactly one do_work call, recovering from panics so a single
// misbehaving integration never kills the loop.
func (r *Runner) tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.health.RecordError(fmt.Errorf("panic in do_work: %v", rec))
		}
	}()

	if err := r.runnable.DoWork(ctx, r.client); err != nil {
		r.health.RecordError(err)
		return
	}
	r.health.RecordSuccess()
}

func (r *Runner) runCleanup() {
	if r.cleanup != nil {
		r.cleanup()
	}
}
