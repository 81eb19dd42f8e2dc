package weather

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hearthkeep/hub/internal/aggregate"
	"github.com/hearthkeep/hub/internal/lifecycle"
	"github.com/hearthkeep/hub/internal/monitor"
)

// Fetcher pulls one vendor's current readings for a single granularity and
// shapes them into interval-tagged records ready for aggregate.Engine.
type Fetcher[E aggregate.Record] func(ctx context.Context) ([]aggregate.SourceIntervalData[E], error)

// Runner drives one weather provider's fetch loop against one C9 engine,
// per §4.10: "each data source is a long-running monitor." It mirrors
// internal/monitor.Runner's start/tick/sleep/stop shape but fetches over
// HTTP instead of polling an integration.RemoteClient.
type Runner[E aggregate.Record] struct {
	source   aggregate.Source
	interval time.Duration
	engine   *aggregate.Engine[E]
	fetch    Fetcher[E]
	health   *monitor.HealthStatus

	stopped atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// NewRunner builds a Runner that feeds engine from fetch every interval.
func NewRunner[E aggregate.Record](source aggregate.Source, interval time.Duration, engine *aggregate.Engine[E], fetch Fetcher[E]) *Runner[E] {
	return &Runner[E]{
		source:   source,
		interval: interval,
		engine:   engine,
		fetch:    fetch,
		health:   monitor.NewHealthStatus(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

var _ lifecycle.Service = (*Runner[*CurrentConditionsRecord])(nil)

func (r *Runner[E]) Name() string { return r.source.ID }

func (r *Runner[E]) ID() string { return r.source.ID }

// Health returns a point-in-time snapshot of this source's fetch health.
func (r *Runner[E]) Health() monitor.Snapshot { return r.health.Snapshot() }

// Start launches the fetch loop in its own goroutine.
func (r *Runner[E]) Start(ctx context.Context) error {
	go r.loop(ctx)
	return nil
}

// Stop requests termination and blocks until the loop has exited.
func (r *Runner[E]) Stop(ctx context.Context) error {
	r.once.Do(func() { close(r.stopCh) })
	select {
	case <-r.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (r *Runner[E]) loop(ctx context.Context) {
	defer close(r.doneCh)
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
		case <-time.After(r.interval):
		}
	}
}

func (r *Runner[E]) tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.health.RecordError(fmt.Errorf("panic fetching %s: %v", r.source.ID, rec))
		}
	}()

	data, err := r.fetch(ctx)
	if err != nil {
		r.health.RecordError(err)
		return
	}
	r.engine.AddData(r.source, data)
	r.health.RecordSuccess()
}
