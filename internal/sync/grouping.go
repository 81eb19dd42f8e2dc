// Package sync implements the Sync Engine (C5): reconciling one
// integration's flat remote "state" list into the local entity model.
package sync

import (
	"strings"

	"github.com/hearthkeep/hub/internal/integration"
)

// ignoreDomains are remote domain prefixes the sync engine never materializes
// as entities: they describe automations/metadata rather than devices.
var ignoreDomains = map[string]bool{
	"automation":   true,
	"calendar":     true,
	"conversation": true,
	"person":       true,
	"script":       true,
	"todo":         true,
	"tts":          true,
	"zone":         true,
}

// suffixTable is stripped from a flat remote name to recover the short name
// shared by states belonging to the same physical device.
var suffixTable = []string{
	"_events_last_hour",
	"_battery",
	"_humidity",
	"_motion",
	"_temperature",
	"_state",
	"_status",
	"_light",
	"_sunrise",
	"_sunset",
	"_elevation",
	"_azimuth",
	"_rising",
}

// parsedState is a RemoteState split into its domain and bare name.
type parsedState struct {
	integration.RemoteState
	Domain string
	Name   string
}

func parseRemoteState(s integration.RemoteState) (parsedState, bool) {
	domain, name, ok := strings.Cut(s.EntityID, ".")
	if !ok {
		return parsedState{}, false
	}
	return parsedState{RemoteState: s, Domain: domain, Name: name}, true
}

// shortName strips the longest matching suffix from name.
func shortName(name string) string {
	for _, suffix := range suffixTable {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// groupingKey implements §4.5 phase 2's three-level priority: a stable
// device-group id beats a suffix-stripped short name, which beats the full
// name.
func groupingKey(s parsedState) string {
	if s.DeviceGroup != "" {
		return "devicegroup:" + s.DeviceGroup
	}
	return "short:" + shortName(s.Name)
}

// DeviceGroup is one physical-device cluster of flat remote states, after
// grouping and duplicate-state elision.
type DeviceGroup struct {
	Key    string
	States []parsedState
}

// groupRemoteStates runs phases 2 of §4.5: domain filtering, grouping, and
// duplicate-state elision, in stable input order.
func groupRemoteStates(states []integration.RemoteState) []DeviceGroup {
	order := make([]string, 0)
	byKey := make(map[string]*DeviceGroup)

	for _, raw := range states {
		ps, ok := parseRemoteState(raw)
		if !ok || ignoreDomains[ps.Domain] {
			continue
		}
		key := groupingKey(ps)
		group, exists := byKey[key]
		if !exists {
			group = &DeviceGroup{Key: key}
			byKey[key] = group
			order = append(order, key)
		}
		group.States = append(group.States, ps)
	}

	out := make([]DeviceGroup, 0, len(order))
	for _, key := range order {
		g := *byKey[key]
		elideDuplicateSwitchLight(&g)
		out = append(out, g)
	}
	return out
}

// elideDuplicateSwitchLight applies §4.5's duplicate-state elision rule: if
// a device group carries both a switch.<name> and a light.<name> entry for
// the same short name, keep only the switch-backed one.
func elideDuplicateSwitchLight(g *DeviceGroup) {
	shortNames := make(map[string]bool)
	for _, s := range g.States {
		if s.Domain == "switch" {
			shortNames[shortName(s.Name)] = true
		}
	}
	if len(shortNames) == 0 {
		return
	}
	filtered := g.States[:0]
	for _, s := range g.States {
		if s.Domain == "light" && shortNames[shortName(s.Name)] {
			continue
		}
		filtered = append(filtered, s)
	}
	g.States = filtered
}

// displayName humanizes a device group's name for the Entity it backs.
func (g DeviceGroup) displayName() string {
	raw := strings.TrimPrefix(g.Key, "devicegroup:")
	raw = strings.TrimPrefix(raw, "short:")
	raw = strings.ReplaceAll(raw, "_", " ")
	words := strings.Fields(raw)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
