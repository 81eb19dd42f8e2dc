package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/internal/hublog"
	"github.com/hearthkeep/hub/internal/integration"
	"github.com/hearthkeep/hub/internal/store/memstore"
)

type fakeRemoteClient struct {
	states []integration.RemoteState
}

func (c fakeRemoteClient) States(ctx context.Context) ([]integration.RemoteState, error) {
	return c.states, nil
}
func (fakeRemoteClient) SetState(ctx context.Context, entityID, value string) error { return nil }
func (fakeRemoteClient) CallService(ctx context.Context, domain, service string, params map[string]string) error {
	return nil
}

func testLogger() *hublog.Logger { return hublog.New("sync-test", "error", "text") }

func TestSyncCreatesEntityOnFirstRun(t *testing.T) {
	st := memstore.New()
	eng := New(st, testLogger())
	client := fakeRemoteClient{states: []integration.RemoteState{remote("switch.foo", nil)}}

	result, err := eng.Sync(context.Background(), "hass", client, Options{})
	require.NoError(t, err)
	require.Contains(t, result.Messages[0], "Created Home Assistant entity: Foo")

	entities, err := st.ListEntitiesByIntegration(context.Background(), nil, "hass")
	require.NoError(t, err)
	require.Len(t, entities, 1)
}

func TestSyncRemovesOrphanedEntityWithNoUserRelationships(t *testing.T) {
	st := memstore.New()
	eng := New(st, testLogger())

	present := fakeRemoteClient{states: []integration.RemoteState{remote("switch.foo", nil)}}
	_, err := eng.Sync(context.Background(), "hass", present, Options{})
	require.NoError(t, err)

	gone := fakeRemoteClient{states: nil}
	result, err := eng.Sync(context.Background(), "hass", gone, Options{})
	require.NoError(t, err)

	entities, err := st.ListEntitiesByIntegration(context.Background(), nil, "hass")
	require.NoError(t, err)
	require.Empty(t, entities)

	found := false
	for _, m := range result.Messages {
		if m == "Removing Foo: no longer reported by integration" {
			found = true
		}
	}
	require.True(t, found)
}

func TestSyncPreservesEntityWithViewMembership(t *testing.T) {
	st := memstore.New()
	eng := New(st, testLogger())

	present := fakeRemoteClient{states: []integration.RemoteState{remote("switch.foo", nil)}}
	_, err := eng.Sync(context.Background(), "hass", present, Options{})
	require.NoError(t, err)

	entities, err := st.ListEntitiesByIntegration(context.Background(), nil, "hass")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.NoError(t, st.AddViewMembership(context.Background(), nil, entities[0].ID, "view-1"))

	gone := fakeRemoteClient{states: nil}
	_, err = eng.Sync(context.Background(), "hass", gone, Options{})
	require.NoError(t, err)

	remaining, err := st.ListEntitiesByIntegration(context.Background(), nil, "hass")
	require.NoError(t, err)
	require.Len(t, remaining, 1, "entity with a view membership must survive intelligent deletion")
}

func TestSyncRegistersAlarmEventHookForAlarmableDeviceClass(t *testing.T) {
	st := memstore.New()
	eng := New(st, testLogger())

	client := fakeRemoteClient{states: []integration.RemoteState{
		remote("binary_sensor.front_door", map[string]string{"device_class": "motion"}),
	}}

	result, err := eng.Sync(context.Background(), "hass", client, Options{AddAlarmEvents: true})
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	entities, err := st.ListEntitiesByIntegration(context.Background(), nil, "hass")
	require.NoError(t, err)
	require.Len(t, entities, 1)

	hooks, err := st.ListAttributeHistory(context.Background(), nil, entities[0].ID, "alarm_event_hook")
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	require.Contains(t, hooks[0].Value, "state.value")
}

func TestSyncSkipsAlarmEventHookWhenFlagUnset(t *testing.T) {
	st := memstore.New()
	eng := New(st, testLogger())

	client := fakeRemoteClient{states: []integration.RemoteState{
		remote("binary_sensor.front_door", map[string]string{"device_class": "motion"}),
	}}

	_, err := eng.Sync(context.Background(), "hass", client, Options{AddAlarmEvents: false})
	require.NoError(t, err)

	entities, err := st.ListEntitiesByIntegration(context.Background(), nil, "hass")
	require.NoError(t, err)
	require.Len(t, entities, 1)

	hooks, err := st.ListAttributeHistory(context.Background(), nil, entities[0].ID, "alarm_event_hook")
	require.NoError(t, err)
	require.Empty(t, hooks)
}

func TestSyncAddsMissingSensorOnSecondRun(t *testing.T) {
	st := memstore.New()
	eng := New(st, testLogger())

	_, err := eng.Sync(context.Background(), "hass", fakeRemoteClient{states: []integration.RemoteState{
		remote("light.kitchen", nil),
	}}, Options{})
	require.NoError(t, err)

	result, err := eng.Sync(context.Background(), "hass", fakeRemoteClient{states: []integration.RemoteState{
		remote("light.kitchen", nil),
		remote("sensor.kitchen_temperature", map[string]string{"device_class": "temperature"}),
	}}, Options{})
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	entities, err := st.ListEntitiesByIntegration(context.Background(), nil, "hass")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	states, err := st.ListStatesByEntity(context.Background(), nil, entities[0].ID)
	require.NoError(t, err)
	require.Len(t, states, 2)
}
