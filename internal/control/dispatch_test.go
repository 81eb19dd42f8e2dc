package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/integration"
	"github.com/hearthkeep/hub/internal/sensorbus"
)

type recordingClient struct {
	domain, service string
	params          map[string]string
	err             error
}

func (c *recordingClient) States(ctx context.Context) ([]integration.RemoteState, error) {
	return nil, nil
}

func (c *recordingClient) SetState(ctx context.Context, entityID, value string) error { return nil }

func (c *recordingClient) CallService(ctx context.Context, domain, service string, params map[string]string) error {
	c.domain, c.service, c.params = domain, service, params
	return c.err
}

func key(name string) entity.IntegrationKey {
	return entity.IntegrationKey{IntegrationID: "hass", IntegrationName: name}
}

func TestDispatchPayloadDeclaredOnOffServices(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("switch.kitchen"), Payload: map[string]string{
		"is_controllable": "true",
		"on_service":      "turn_on",
		"off_service":     "turn_off",
	}}

	result := d.Dispatch(context.Background(), client, target, "on")
	require.Empty(t, result.Errors)
	require.Equal(t, "turn_on", client.service)
	require.Equal(t, "on", *result.NewValue)
}

func TestDispatchPayloadNumericRangeCheck(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("light.kitchen"), Payload: map[string]string{
		"is_controllable":     "true",
		"on_service":          "turn_on",
		"off_service":         "turn_off",
		"supports_brightness": "true",
	}}

	result := d.Dispatch(context.Background(), client, target, "150")
	require.NotEmpty(t, result.Errors, "150 is outside 0-100 brightness range")
	require.Empty(t, client.service, "no remote call on a range error")
}

// TestDispatchBrightnessUsesOnServiceWithoutSetService is scenario S2: a
// brightness-only payload declares on_service/off_service and no
// set_service at all. A nonzero brightness must still turn the light on via
// on_service with brightness_pct, not fail for want of set_service.
func TestDispatchBrightnessUsesOnServiceWithoutSetService(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("light.kitchen"), Payload: map[string]string{
		"is_controllable":     "true",
		"on_service":          "turn_on",
		"off_service":         "turn_off",
		"supports_brightness": "true",
	}}

	result := d.Dispatch(context.Background(), client, target, "40")
	require.Empty(t, result.Errors)
	require.Equal(t, "light", client.domain)
	require.Equal(t, "turn_on", client.service)
	require.Equal(t, "40", client.params["brightness_pct"])
}

// TestDispatchBrightnessZeroUsesOffServiceWithNoParam mirrors
// _control_brightness_value: 0% brightness turns the light off via
// off_service, with no brightness_pct parameter at all.
func TestDispatchBrightnessZeroUsesOffServiceWithNoParam(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("light.kitchen"), Payload: map[string]string{
		"is_controllable":     "true",
		"on_service":          "turn_on",
		"off_service":         "turn_off",
		"supports_brightness": "true",
	}}

	result := d.Dispatch(context.Background(), client, target, "0")
	require.Empty(t, result.Errors)
	require.Equal(t, "turn_off", client.service)
	require.NotContains(t, client.params, "brightness_pct")
}

func TestDispatchVolumeFallsBackToDefaultServiceWithoutSetService(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("media_player.living_room"), Payload: map[string]string{
		"is_controllable": "true",
		"supports_volume": "true",
	}}

	result := d.Dispatch(context.Background(), client, target, "0.5")
	require.Empty(t, result.Errors)
	require.Equal(t, "volume_set", client.service)
	require.Equal(t, "0.5", client.params["volume_level"])
}

func TestDispatchPositionFallsBackToDefaultServiceWithoutSetService(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("cover.blinds"), Payload: map[string]string{
		"is_controllable":   "true",
		"supports_position": "true",
	}}

	result := d.Dispatch(context.Background(), client, target, "30")
	require.Empty(t, result.Errors)
	require.Equal(t, "set_cover_position", client.service)
	require.Equal(t, "30", client.params["position"])
}

func TestDispatchTemperatureRequiresDeclaredSetService(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("climate.living_room"), Payload: map[string]string{
		"is_controllable":      "true",
		"supports_temperature": "true",
	}}

	result := d.Dispatch(context.Background(), client, target, "21")
	require.NotEmpty(t, result.Errors, "temperature control has no default service to fall back to")
	require.Empty(t, client.service)
}

func TestDispatchBestEffortFallbackForCover(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	result := d.Dispatch(context.Background(), client, Target{Key: key("cover.blinds")}, "open")
	require.Empty(t, result.Errors)
	require.Equal(t, "open_cover", client.service)
}

func TestDispatchBestEffortFallbackForLock(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	result := d.Dispatch(context.Background(), client, Target{Key: key("lock.front_door")}, "off")
	require.Empty(t, result.Errors)
	require.Equal(t, "unlock", client.service)
}

func TestDispatchUnknownControlValueFailsLocallyWithoutRemoteCall(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}

	target := Target{Key: key("switch.kitchen"), Payload: map[string]string{
		"is_controllable": "true",
		"on_service":      "turn_on",
		"off_service":     "turn_off",
	}}

	result := d.Dispatch(context.Background(), client, target, "sparkle")
	require.NotEmpty(t, result.Errors)
	require.Empty(t, client.service)
}

func TestDispatchInstallsOverrideOnSuccess(t *testing.T) {
	bus := sensorbus.New()
	d := New(bus)
	client := &recordingClient{}
	k := key("switch.kitchen")

	bus.UpdateLatest(map[entity.IntegrationKey]entity.SensorResponse{
		k: {IntegrationKey: k, Value: "off", Timestamp: time.Now()},
	})

	target := Target{Key: k, Payload: map[string]string{
		"is_controllable": "true",
		"on_service":      "turn_on",
		"off_service":     "turn_off",
	}}

	result := d.Dispatch(context.Background(), client, target, "on")
	require.Empty(t, result.Errors)

	readings := bus.LatestFor([]entity.IntegrationKey{k})
	require.NotEmpty(t, readings[k])
	require.Equal(t, "on", readings[k][0].Value)
}
