package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testRecord is a minimal two-field Record used only by this package's
// tests: one numeric field, one boolean field.
type testRecord struct {
	temperature *DataPoint
	isRaining   *DataPoint
}

func newTestRecord() *testRecord { return &testRecord{} }

func (r *testRecord) FieldNames() []string { return []string{"temperature", "is_raining"} }

func (r *testRecord) GetField(name string) *DataPoint {
	switch name {
	case "temperature":
		return r.temperature
	case "is_raining":
		return r.isRaining
	default:
		return nil
	}
}

func (r *testRecord) SetField(name string, dp *DataPoint) {
	switch name {
	case "temperature":
		r.temperature = dp
	case "is_raining":
		r.isRaining = dp
	}
}

func numeric(t time.Time, v float64) DataPoint {
	return DataPoint{Kind: KindNumeric, SourceDateTime: t, QuantityAve: v}
}

func boolean(t time.Time, v bool) DataPoint {
	return DataPoint{Kind: KindBoolean, SourceDateTime: t, BoolValue: v}
}

func TestCalculatedIntervalsUTCHourlyAscending(t *testing.T) {
	now := time.Date(2026, 8, 1, 14, 37, 0, 0, time.UTC)
	e := NewEngine(time.Hour, 3, true, nil, newTestRecord, func() time.Time { return now })

	ivs := e.calculatedIntervalsUTC()
	require.Len(t, ivs, 3)
	require.Equal(t, time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC), ivs[0].Start)
	require.Equal(t, time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC), ivs[1].Start)
	require.Equal(t, time.Date(2026, 8, 1, 16, 0, 0, 0, time.UTC), ivs[2].Start)
}

func TestCalculatedIntervalsUTCDescendingOnExactBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	e := NewEngine(time.Hour, 2, false, nil, newTestRecord, func() time.Time { return now })

	ivs := e.calculatedIntervalsUTC()
	require.Len(t, ivs, 2)
	// Exactly on the boundary, descending order must treat the last
	// *complete* interval as the one ending at now, not starting at it.
	require.Equal(t, time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC), ivs[0].Start)
	require.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), ivs[1].Start)
}

func TestCalculatedIntervalsLocalDailyConvertsToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	// Noon local on Aug 1 2026 (Denver is UTC-6 in summer).
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, loc)
	e := NewEngine(24*time.Hour, 2, true, loc, newTestRecord, func() time.Time { return now })

	ivs := e.calculatedIntervalsLocal()
	require.Len(t, ivs, 2)
	// Local midnight Aug 1 -> 06:00 UTC.
	require.Equal(t, time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC), ivs[0].Start.UTC())
	require.Equal(t, time.Date(2026, 8, 2, 6, 0, 0, 0, time.UTC), ivs[1].Start.UTC())
}

func TestAddDataSingleContributionPassthrough(t *testing.T) {
	now := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	e := NewEngine(time.Hour, 1, true, nil, newTestRecord, func() time.Time { return now })

	iv := TimeInterval{Start: now, End: now.Add(time.Hour)}
	src := Source{ID: "station-a", Priority: 1}
	rec := newTestRecord()
	rec.SetField("temperature", ptr(numeric(now, 21.5)))

	e.AddData(src, []SourceIntervalData[*testRecord]{{Interval: iv, Record: rec}})

	snap := e.Snapshot()
	require.Len(t, snap, 1)
	got := snap[0].Record.GetField("temperature")
	require.NotNil(t, got)
	require.Equal(t, 21.5, got.QuantityAve)
}

func TestAddDataBestSourcePrefersLowerPriorityWhenFresh(t *testing.T) {
	now := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	e := NewEngine(time.Hour, 1, true, nil, newTestRecord, func() time.Time { return now })

	iv := TimeInterval{Start: now, End: now.Add(time.Hour)}

	low := Source{ID: "primary", Priority: 1}
	high := Source{ID: "backup", Priority: 5}

	recLow := newTestRecord()
	recLow.SetField("temperature", ptr(numeric(now, 10)))
	recHigh := newTestRecord()
	recHigh.SetField("temperature", ptr(numeric(now, 99)))

	e.AddData(high, []SourceIntervalData[*testRecord]{{Interval: iv, Record: recHigh}})
	e.AddData(low, []SourceIntervalData[*testRecord]{{Interval: iv, Record: recLow}})

	snap := e.Snapshot()
	got := snap[0].Record.GetField("temperature")
	require.NotNil(t, got)
	require.Equal(t, 10.0, got.QuantityAve, "lower priority source wins when both are fresh")
}

func TestAddDataBestSourceFallsBackToFreshestWhenAllStale(t *testing.T) {
	now := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	e := NewEngine(time.Hour, 1, true, nil, newTestRecord, func() time.Time { return now })

	iv := TimeInterval{Start: now, End: now.Add(time.Hour)}

	stalePrimary := Source{ID: "primary", Priority: 1}
	lessStaleBackup := Source{ID: "backup", Priority: 5}

	recPrimary := newTestRecord()
	recPrimary.SetField("temperature", ptr(numeric(now.Add(-5*time.Hour), 10)))
	recBackup := newTestRecord()
	recBackup.SetField("temperature", ptr(numeric(now.Add(-3*time.Hour), 99)))

	e.AddData(stalePrimary, []SourceIntervalData[*testRecord]{{Interval: iv, Record: recPrimary}})
	e.AddData(lessStaleBackup, []SourceIntervalData[*testRecord]{{Interval: iv, Record: recBackup}})

	snap := e.Snapshot()
	got := snap[0].Record.GetField("temperature")
	require.NotNil(t, got)
	require.Equal(t, 99.0, got.QuantityAve, "when every source is stale, the freshest wins regardless of priority")
}

func TestMergeNumericTimeWeightedMeanAndRange(t *testing.T) {
	interval := TimeInterval{Start: time.Unix(0, 0).UTC(), End: time.Unix(3600, 0).UTC()}
	points := []sourcePoint{
		{
			interval: TimeInterval{Start: interval.Start, End: interval.Start.Add(30 * time.Minute)},
			point: DataPoint{
				Kind: KindNumeric, QuantityAve: 10,
				QuantityMin: f64ptr(8), QuantityMax: f64ptr(12),
			},
		},
		{
			interval: TimeInterval{Start: interval.Start.Add(30 * time.Minute), End: interval.End},
			point: DataPoint{
				Kind: KindNumeric, QuantityAve: 20,
				QuantityMin: f64ptr(18), QuantityMax: f64ptr(22),
			},
		},
	}
	merged := mergeNumeric(interval, points)
	require.NotNil(t, merged)
	require.InDelta(t, 15.0, merged.QuantityAve, 0.001, "equal overlap weights average to the midpoint")
	require.Equal(t, 8.0, *merged.QuantityMin)
	require.Equal(t, 22.0, *merged.QuantityMax)
}

func TestMergeBooleanMajorityTiesToFalse(t *testing.T) {
	interval := TimeInterval{Start: time.Unix(0, 0).UTC(), End: time.Unix(3600, 0).UTC()}
	points := []sourcePoint{
		{interval: TimeInterval{Start: interval.Start, End: interval.Start.Add(30 * time.Minute)}, point: boolean(interval.Start, true)},
		{interval: TimeInterval{Start: interval.Start.Add(30 * time.Minute), End: interval.End}, point: boolean(interval.Start, false)},
	}
	merged := mergeBoolean(interval, points)
	require.False(t, merged.BoolValue, "equal duration ties resolve to false")
}

func TestMergeBooleanMajorityPicksLongerDuration(t *testing.T) {
	interval := TimeInterval{Start: time.Unix(0, 0).UTC(), End: time.Unix(3600, 0).UTC()}
	points := []sourcePoint{
		{interval: TimeInterval{Start: interval.Start, End: interval.Start.Add(40 * time.Minute)}, point: boolean(interval.Start, true)},
		{interval: TimeInterval{Start: interval.Start.Add(40 * time.Minute), End: interval.End}, point: boolean(interval.Start, false)},
	}
	merged := mergeBoolean(interval, points)
	require.True(t, merged.BoolValue)
}

func TestMergeStringLongestOverlapWinsFirstSeenTiesWin(t *testing.T) {
	interval := TimeInterval{Start: time.Unix(0, 0).UTC(), End: time.Unix(3600, 0).UTC()}
	points := []sourcePoint{
		{
			interval: TimeInterval{Start: interval.Start, End: interval.Start.Add(30 * time.Minute)},
			point:    DataPoint{Kind: KindString, StringValue: "first"},
		},
		{
			interval: TimeInterval{Start: interval.Start.Add(30 * time.Minute), End: interval.End},
			point:    DataPoint{Kind: KindString, StringValue: "second"},
		},
	}
	merged := mergeString(interval, points)
	require.Equal(t, "first", merged.StringValue, "equal overlap ties keep the first point seen")
}

func TestUpdateIntervalsPreservesLiveAggregatesAndDropsRolledOff(t *testing.T) {
	start := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	current := start
	e := NewEngine(time.Hour, 2, true, nil, newTestRecord, func() time.Time { return current })

	iv := TimeInterval{Start: start, End: start.Add(time.Hour)}
	src := Source{ID: "station-a", Priority: 1}
	rec := newTestRecord()
	rec.SetField("temperature", ptr(numeric(start, 42)))
	e.AddData(src, []SourceIntervalData[*testRecord]{{Interval: iv, Record: rec}})

	// Re-running the window update without moving the clock must keep the
	// still-live interval's aggregate.
	e.AddData(src, nil)

	snapBefore := e.Snapshot()
	require.Equal(t, 42.0, snapBefore[0].Record.GetField("temperature").QuantityAve)

	// Advance far enough that the original interval rolls off the window.
	current = start.Add(5 * time.Hour)
	e.AddData(src, nil)

	snapAfter := e.Snapshot()
	for _, s := range snapAfter {
		require.False(t, s.Interval.Start.Equal(start), "rolled-off interval must be dropped")
	}
}

func ptr(dp DataPoint) *DataPoint { return &dp }
func f64ptr(v float64) *float64   { return &v }
