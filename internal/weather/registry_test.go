package weather

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/internal/aggregate"
)

func TestRegistryRegistersOneServicePerSource(t *testing.T) {
	reg := NewRegistry(time.UTC)

	ccSource := aggregate.Source{ID: "test-current", Priority: 1}
	reg.RegisterCurrentConditions(ccSource, time.Minute, func(ctx context.Context) ([]aggregate.SourceIntervalData[*CurrentConditionsRecord], error) {
		return nil, nil
	})

	histSource := aggregate.Source{ID: "test-history", Priority: 1}
	reg.RegisterDailyHistory(histSource, func(ctx context.Context) ([]aggregate.SourceIntervalData[*DailyHistoryRecord], error) {
		return nil, nil
	})

	services := reg.Services()
	require.Len(t, services, 2)
	names := map[string]bool{}
	for _, svc := range services {
		names[svc.Name()] = true
	}
	require.True(t, names["test-current"])
	require.True(t, names["test-history"])
}

func TestRunnerFeedsEngineOnSuccessfulFetch(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	engine := aggregate.NewEngine(time.Hour, 1, true, nil, NewCurrentConditionsRecord, func() time.Time { return now })
	source := aggregate.Source{ID: "test-source", Priority: 1}

	fetchCount := 0
	fetch := func(ctx context.Context) ([]aggregate.SourceIntervalData[*CurrentConditionsRecord], error) {
		fetchCount++
		rec := NewCurrentConditionsRecord()
		rec.SetField("temperature", &aggregate.DataPoint{Kind: aggregate.KindNumeric, SourceDateTime: now, QuantityAve: 72})
		return []aggregate.SourceIntervalData[*CurrentConditionsRecord]{{
			Interval: aggregate.TimeInterval{Start: now, End: now.Add(time.Hour)},
			Record:   rec,
		}}, nil
	}

	runner := NewRunner(source, time.Hour, engine, fetch)
	runner.tick(context.Background())

	require.Equal(t, 1, fetchCount)
	snap := engine.Snapshot()
	require.Len(t, snap, 1)
	temp := snap[0].Record.GetField("temperature")
	require.NotNil(t, temp)
	require.Equal(t, 72.0, temp.QuantityAve)
	require.Equal(t, monitorHealthyStatus(runner), true)
}

func TestRunnerRecordsErrorOnFetchFailure(t *testing.T) {
	engine := aggregate.NewEngine(time.Hour, 1, true, nil, NewCurrentConditionsRecord, nil)
	source := aggregate.Source{ID: "test-source", Priority: 1}

	fetch := func(ctx context.Context) ([]aggregate.SourceIntervalData[*CurrentConditionsRecord], error) {
		return nil, assertErr
	}

	runner := NewRunner(source, time.Hour, engine, fetch)
	runner.tick(context.Background())

	snap := runner.Health()
	require.NotEqual(t, "", snap.ErrorMessage)
}

var assertErr = fetchError("boom")

type fetchError string

func (e fetchError) Error() string { return string(e) }

func monitorHealthyStatus[E aggregate.Record](r *Runner[E]) bool {
	return r.Health().ErrorMessage == ""
}
