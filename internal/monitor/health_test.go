package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyErrorKeywords(t *testing.T) {
	require.Equal(t, StatusWarning, classifyError(errors.New("temporary network blip")))
	require.Equal(t, StatusWarning, classifyError(errors.New("read tcp: i/o timeout")))
	require.Equal(t, StatusError, classifyError(errors.New("invalid response shape")))
}

func TestHealthStatusRecordSuccessResetsErrorCount(t *testing.T) {
	h := NewHealthStatus()
	h.RecordError(errors.New("boom"))
	h.RecordError(errors.New("boom again"))
	require.Equal(t, 2, h.Snapshot().ErrorCount)

	h.RecordSuccess()
	require.Equal(t, 0, h.Snapshot().ErrorCount)
	require.Equal(t, StatusHealthy, h.Overall())
}

func TestHeartbeatStatusStalenessThresholds(t *testing.T) {
	h := NewHealthStatus()
	require.Equal(t, HeartbeatDead, h.HeartbeatStatus(), "never-seen heartbeat is dead")

	h.RecordSuccess()
	require.Equal(t, HeartbeatActive, h.HeartbeatStatus())
}

func TestApiSourceHealthFailingOnConsecutiveFailures(t *testing.T) {
	src := NewApiSourceHealth("ha", "Home Assistant")
	for i := 0; i < failingConsecutiveThreshold; i++ {
		src.RecordFailure(10 * time.Millisecond)
	}
	require.Equal(t, ApiSourceFailing, src.Status())
}

func TestApiSourceHealthDegradedOnSlowResponses(t *testing.T) {
	src := NewApiSourceHealth("ha", "Home Assistant")
	for i := 0; i < 5; i++ {
		src.RecordSuccess(3 * time.Second)
	}
	require.Equal(t, ApiSourceDegraded, src.Status())
}

func TestApiSourceHealthRecoversAfterSuccess(t *testing.T) {
	src := NewApiSourceHealth("ha", "Home Assistant")
	src.RecordFailure(10 * time.Millisecond)
	src.RecordFailure(10 * time.Millisecond)
	src.RecordSuccess(10 * time.Millisecond)
	require.Equal(t, 0, src.snapshot().ConsecutiveFailures)
}

func TestDefaultAggregationRuleBySourceCount(t *testing.T) {
	require.Equal(t, AggregationHeartbeatOnly, DefaultAggregationRule(0))
	require.Equal(t, AggregationAllHealthy, DefaultAggregationRule(1))
	require.Equal(t, AggregationMajorityHealthy, DefaultAggregationRule(2))
}

func TestOverallIsWorstOfHeartbeatAndApiAggregate(t *testing.T) {
	h := NewHealthStatus()
	h.RecordSuccess()

	failing := NewApiSourceHealth("ha", "Home Assistant")
	for i := 0; i < failingConsecutiveThreshold; i++ {
		failing.RecordFailure(10 * time.Millisecond)
	}
	h.AddApiSource(failing)
	h.SetAggregationRule(AggregationAllHealthy)

	require.Equal(t, StatusError, h.Overall(), "a single failing source under ALL_HEALTHY must fail the monitor")
}

func TestRecordCancelledMarksError(t *testing.T) {
	h := NewHealthStatus()
	h.RecordCancelled()
	snap := h.Snapshot()
	require.Equal(t, StatusError, snap.Status)
	require.Equal(t, "cancelled", snap.ErrorMessage)
}
