package sync

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/internal/integration"
)

func remote(entityID string, attrs map[string]string) integration.RemoteState {
	return integration.RemoteState{EntityID: entityID, Attributes: attrs}
}

func TestGroupRemoteStatesIgnoresListedDomains(t *testing.T) {
	groups := groupRemoteStates([]integration.RemoteState{
		remote("automation.morning", nil),
		remote("light.kitchen", nil),
	})
	require.Len(t, groups, 1)
	require.Equal(t, "short:kitchen", groups[0].Key)
}

func TestGroupRemoteStatesBySuffixStrippedShortName(t *testing.T) {
	groups := groupRemoteStates([]integration.RemoteState{
		remote("light.kitchen", nil),
		remote("sensor.kitchen_temperature", map[string]string{"device_class": "temperature"}),
		remote("binary_sensor.kitchen_motion", map[string]string{"device_class": "motion"}),
	})
	require.Len(t, groups, 1)
	require.Len(t, groups[0].States, 3)
}

func TestGroupRemoteStatesByStableDeviceGroupID(t *testing.T) {
	a := remote("sensor.foo_battery", nil)
	a.DeviceGroup = "insteon:1a2b3c"
	b := remote("switch.bar", nil)
	b.DeviceGroup = "insteon:1a2b3c"

	groups := groupRemoteStates([]integration.RemoteState{a, b})
	require.Len(t, groups, 1)
	require.Equal(t, "devicegroup:insteon:1a2b3c", groups[0].Key)
}

func TestElideDuplicateSwitchLightKeepsOnlySwitch(t *testing.T) {
	groups := groupRemoteStates([]integration.RemoteState{
		remote("light.lamp", nil),
		remote("switch.lamp", nil),
	})
	require.Len(t, groups, 1)
	require.Len(t, groups[0].States, 1)
	require.Equal(t, "switch", groups[0].States[0].Domain)
}

func TestElideDuplicateSwitchLightIsSymmetricWhenOnlyLightPresent(t *testing.T) {
	groups := groupRemoteStates([]integration.RemoteState{
		remote("light.lamp", nil),
	})
	require.Len(t, groups, 1)
	require.Equal(t, "light", groups[0].States[0].Domain)
}

func TestDisplayNameHumanizesShortName(t *testing.T) {
	g := DeviceGroup{Key: "short:kitchen_area"}
	require.Equal(t, "Kitchen Area", g.displayName())
}
