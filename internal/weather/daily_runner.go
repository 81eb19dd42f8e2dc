package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearthkeep/hub/internal/aggregate"
	"github.com/hearthkeep/hub/internal/lifecycle"
	"github.com/hearthkeep/hub/internal/monitor"
)

// dailyHistorySchedule runs shortly after local midnight, once the prior
// day's observations are final at the vendor.
const dailyHistorySchedule = "5 0 * * *"

// DailyRunner drives the daily-history source, the one granularity that is
// naturally calendar-aligned rather than fixed-interval: the vendor's
// "yesterday" summary isn't meaningful until the new local day has
// started. It uses robfig/cron/v3 to trigger fetches at local midnight
// instead of the fixed-period loop the other granularities use.
type DailyRunner[E aggregate.Record] struct {
	source   aggregate.Source
	engine   *aggregate.Engine[E]
	fetch    Fetcher[E]
	health   *monitor.HealthStatus
	location *time.Location

	cron *cron.Cron
}

// NewDailyRunner builds a DailyRunner scheduled against loc's local
// midnight.
func NewDailyRunner[E aggregate.Record](source aggregate.Source, engine *aggregate.Engine[E], fetch Fetcher[E], loc *time.Location) *DailyRunner[E] {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyRunner[E]{
		source:   source,
		engine:   engine,
		fetch:    fetch,
		health:   monitor.NewHealthStatus(),
		location: loc,
	}
}

var _ lifecycle.Service = (*DailyRunner[*DailyHistoryRecord])(nil)

func (r *DailyRunner[E]) Name() string { return r.source.ID }

func (r *DailyRunner[E]) ID() string { return r.source.ID }

// Health returns a point-in-time snapshot of this source's fetch health.
func (r *DailyRunner[E]) Health() monitor.Snapshot { return r.health.Snapshot() }

// Start registers the midnight job and runs one fetch immediately so the
// engine isn't empty until the first scheduled trigger.
func (r *DailyRunner[E]) Start(ctx context.Context) error {
	r.cron = cron.New(cron.WithLocation(r.location))
	_, err := r.cron.AddFunc(dailyHistorySchedule, func() { r.tick(ctx) })
	if err != nil {
		return fmt.Errorf("scheduling daily history fetch: %w", err)
	}
	r.cron.Start()
	go r.tick(ctx)
	return nil
}

// Stop halts the cron scheduler and waits until a scheduled tick that is
// already running has finished; the first tick Start launches directly is
// not waited for.
func (r *DailyRunner[E]) Stop(ctx context.Context) error {
	if r.cron != nil {
		stopCtx := r.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *DailyRunner[E]) tick(ctx context.Context) {
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
