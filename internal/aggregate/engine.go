package aggregate

import (
	"sync"
	"time"
)

// Engine maintains a fixed-count rolling window of aggregated intervals for
// one record type E, merging source data from however many sources
// contribute to it. Per §4.9, an Engine is internally single-threaded via a
// mutex and initializes its interval window lazily on first use.
//
// IntervalLength selects the truncation policy: exactly 24h means intervals
// are daily, aligned to local midnight in Location and stored in UTC; any
// other length means intervals are aligned to UTC multiples of the interval
// length.
type Engine[E Record] struct {
	mu sync.Mutex

	intervalLength   time.Duration
	maxIntervalCount int
	ascending        bool
	location         *time.Location
	newRecord        func() E
	now              func() time.Time

	initialized bool
	order       []TimeInterval
	aggregates  map[TimeInterval]*aggregatedInterval[E]
}

// NewEngine builds an Engine. newRecord must return a zero-valued E ready
// to receive SetField calls; now lets tests control the current time (it
// defaults to time.Now when nil).
func NewEngine[E Record](intervalLength time.Duration, maxIntervalCount int, ascending bool, location *time.Location, newRecord func() E, now func() time.Time) *Engine[E] {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Engine[E]{
		intervalLength:   intervalLength,
		maxIntervalCount: maxIntervalCount,
		ascending:        ascending,
		location:         location,
		newRecord:        newRecord,
		now:              now,
		aggregates:       make(map[TimeInterval]*aggregatedInterval[E]),
	}
}

func (e *Engine[E]) isLocalDaily() bool {
	return e.intervalLength == 24*time.Hour
}

// ensureInitializedLocked lazily populates the interval window on first
// use. Idempotent: a later call just re-runs updateIntervalsLocked, which
// is itself a no-op when the calculated window hasn't moved.
func (e *Engine[E]) ensureInitializedLocked() {
	e.updateIntervalsLocked()
	e.initialized = true
}

// calculatedIntervals returns the maxIntervalCount intervals that should
// currently be live, in e.order's direction (ascending or descending).
func (e *Engine[E]) calculatedIntervals() []TimeInterval {
	if e.isLocalDaily() {
		return e.calculatedIntervalsLocal()
	}
	return e.calculatedIntervalsUTC()
}

// calculatedIntervalsUTC rounds now down to the current multiple of
// intervalLength and lays out maxIntervalCount consecutive intervals from
// there, ascending or descending per e.ascending. When descending and now
// sits exactly on a boundary, the most recent *complete* interval is the
// one ending at now, not the one starting at now.
func (e *Engine[E]) calculatedIntervalsUTC() []TimeInterval {
	now := e.now().UTC()
	step := e.intervalLength
	floor := now.Truncate(step)
	if !e.ascending && floor.Equal(now) {
		floor = floor.Add(-step)
	}

	out := make([]TimeInterval, e.maxIntervalCount)
	for i := 0; i < e.maxIntervalCount; i++ {
		var start time.Time
		if e.ascending {
			start = floor.Add(time.Duration(i) * step)
		} else {
			start = floor.Add(time.Duration(-i) * step)
		}
		out[i] = TimeInterval{Start: start, End: start.Add(step)}
	}
	return out
}

// calculatedIntervalsLocal computes local-timezone midnight-to-midnight
// daily intervals, then converts each boundary to UTC for storage.
func (e *Engine[E]) calculatedIntervalsLocal() []TimeInterval {
	nowLocal := e.now().In(e.location)
	midnight := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, e.location)

	out := make([]TimeInterval, e.maxIntervalCount)
	for i := 0; i < e.maxIntervalCount; i++ {
		var start time.Time
		if e.ascending {
			start = midnight.AddDate(0, 0, i)
		} else {
			start = midnight.AddDate(0, 0, -i)
		}
		end := start.AddDate(0, 0, 1)
		out[i] = TimeInterval{Start: start.UTC(), End: end.UTC()}
	}
	return out
}

// updateIntervalsLocked recomputes the live interval window, preserving
// aggregates for intervals that are still wanted and dropping the rest, per
// §4.9 phase 1 of add_data.
func (e *Engine[E]) updateIntervalsLocked() {
	wanted := e.calculatedIntervals()
	next := make(map[TimeInterval]*aggregatedInterval[E], len(wanted))
	for _, iv := range wanted {
		if existing, ok := e.aggregates[iv]; ok {
			next[iv] = existing
			continue
		}
		next[iv] = newAggregatedInterval[E](iv, e.newRecord)
	}
	e.aggregates = next
	e.order = wanted
}

// AddData distributes source's readings for sourceIntervals into every
// aggregated interval they overlap, then re-aggregates every touched
// interval. Per §4.9 phases 2-3.
func (e *Engine[E]) AddData(source Source, sourceIntervals []SourceIntervalData[E]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		e.ensureInitializedLocked()
	} else {
		e.updateIntervalsLocked()
	}

	touched := map[TimeInterval]bool{}
	for _, sid := range sourceIntervals {
		for _, iv := range e.order {
			agg, ok := e.aggregates[iv]
			if !ok || !iv.Overlaps(sid.Interval) {
				continue
			}
			agg.addSourceData(source, sid)
			touched[iv] = true
		}
	}
	now := e.now()
	for iv := range touched {
		e.aggregates[iv].reaggregate(now)
	}
}

// Snapshot returns the current live intervals and their aggregated
// records, in the engine's configured order.
func (e *Engine[E]) Snapshot() []SourceIntervalData[E] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		e.ensureInitializedLocked()
	}

	out := make([]SourceIntervalData[E], 0, len(e.order))
	for _, iv := range e.order {
		out = append(out, SourceIntervalData[E]{Interval: iv, Record: e.aggregates[iv].record})
	}
	return out
}
