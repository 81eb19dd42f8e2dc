package sensorbus

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/domain/entity"
)

func key(id string) entity.IntegrationKey {
	return entity.IntegrationKey{IntegrationID: "hass", IntegrationName: id}
}

func TestUpdateLatestDiscardsOlderArrivals(t *testing.T) {
	b := New()
	defer b.Close()

	k := key("sensor.kitchen_motion")
	now := time.Now()

	b.UpdateLatest(map[entity.IntegrationKey]entity.SensorResponse{
		k: {IntegrationKey: k, Value: "on", Timestamp: now},
	})
	b.UpdateLatest(map[entity.IntegrationKey]entity.SensorResponse{
		k: {IntegrationKey: k, Value: "off", Timestamp: now.Add(-time.Second)},
	})

	got := b.LatestFor([]entity.IntegrationKey{k})[k]
	require.Len(t, got, 1)
	require.Equal(t, "on", got[0].Value, "an older arrival must not overwrite a newer one")
}

func TestUpdateLatestKeepsShortHistory(t *testing.T) {
	b := New()
	defer b.Close()

	k := key("sensor.kitchen_motion")
	base := time.Now()
	for i := 0; i < 3; i++ {
		b.UpdateLatest(map[entity.IntegrationKey]entity.SensorResponse{
			k: {IntegrationKey: k, Value: "on", Timestamp: base.Add(time.Duration(i) * time.Second)},
		})
	}

	got := b.LatestAll()[k]
	require.Len(t, got, 3)
	require.True(t, got[0].Timestamp.After(got[1].Timestamp))
}

func TestOverridePreservesTimestampAndExpires(t *testing.T) {
	b := New()
	defer b.Close()

	k := key("light.kitchen")
	now := time.Now()
	b.UpdateLatest(map[entity.IntegrationKey]entity.SensorResponse{
		k: {IntegrationKey: k, Value: "off", Timestamp: now},
	})

	b.Override(k, "on", 50*time.Millisecond)
	got := b.LatestFor([]entity.IntegrationKey{k})[k]
	require.Equal(t, "on", got[0].Value)
	require.True(t, got[0].Timestamp.Equal(now), "override must preserve the underlying entry's timestamp")

	time.Sleep(75 * time.Millisecond)
	got = b.LatestFor([]entity.IntegrationKey{k})[k]
	require.Equal(t, "off", got[0].Value, "expired override must fall back to the last polled value")
}

func TestUpdateLatestNotifiesListenersOnlyForAppliedResponses(t *testing.T) {
	b := New()
	defer b.Close()

	k := key("sensor.kitchen_motion")
	now := time.Now()
	var seen int
	b.OnUpdate(func(applied map[entity.IntegrationKey]entity.SensorResponse) {
		seen += len(applied)
	})

	b.UpdateLatest(map[entity.IntegrationKey]entity.SensorResponse{
		k: {IntegrationKey: k, Value: "on", Timestamp: now},
	})
	b.UpdateLatest(map[entity.IntegrationKey]entity.SensorResponse{
		k: {IntegrationKey: k, Value: "stale", Timestamp: now.Add(-time.Minute)},
	})

	require.Equal(t, 1, seen)
}

func TestOverrideCapacityEvictsSoonestToExpire(t *testing.T) {
	b := New()
	defer b.Close()

	for i := 0; i < overrideCapacity; i++ {
		k := key("sensor-" + strconv.Itoa(i))
		b.Override(k, "on", time.Duration(i+1)*time.Minute)
	}
	require.Len(t, b.overrides, overrideCapacity)

	newKey := key("one-more")
	b.Override(newKey, "on", time.Hour)

	require.Len(t, b.overrides, overrideCapacity, "override cache must stay bounded at capacity")
	_, stillThere := b.overrides[newKey]
	require.True(t, stillThere, "the newly inserted override must survive its own insertion")
	_, soonestStillThere := b.overrides[key("sensor-0")]
	require.False(t, soonestStillThere, "the override nearest to expiry must be the one evicted")
}

func TestClearOverridesForIntegrationOnlyTouchesThatIntegration(t *testing.T) {
	b := New()
	defer b.Close()

	hassKey := entity.IntegrationKey{IntegrationID: "hass", IntegrationName: "light.kitchen"}
	otherKey := entity.IntegrationKey{IntegrationID: "other", IntegrationName: "light.kitchen"}
	b.Override(hassKey, "on", time.Minute)
	b.Override(otherKey, "on", time.Minute)

	b.ClearOverridesForIntegration("hass")

	require.NotContains(t, b.overrides, hassKey)
	require.Contains(t, b.overrides, otherKey)
}
