// Package control implements the Controller Dispatch (C7): translating a
// UI-facing control value into a remote service call and, on success,
// installing a short-lived optimistic override on the Sensor Response Bus.
package control

import (
	"context"
	"strconv"
	"strings"

	"github.com/hearthkeep/hub/domain/entity"
	"github.com/hearthkeep/hub/internal/integration"
	"github.com/hearthkeep/hub/internal/sensorbus"
)

// ControlResult is the outcome of one Dispatch call, per §4.7.
type ControlResult struct {
	NewValue *string
	Errors   []string
}

func (r *ControlResult) fail(msg string) *ControlResult {
	r.Errors = append(r.Errors, msg)
	return r
}

// Target bundles the controller's remote-protocol identity and its
// optional declared payload, per §4.7's IntegrationDetails(key, payload?).
type Target struct {
	Key     entity.IntegrationKey
	Payload map[string]string
}

const (
	brightnessMin, brightnessMax = 0.0, 100.0
	volumeMin, volumeMax         = 0.0, 1.0
	positionMin, positionMax     = 0.0, 100.0
)

// discreteValues maps every recognized UI-facing spelling onto one of a
// small set of canonical command words. Synonyms (true/1/lock for on,
// false/0/unlock for off) fold together; open/close stay distinct from on/off
// so a payload's open_service/close_service can still be selected.
var discreteValues = map[string]string{
	"on": "on", "true": "on", "1": "on", "lock": "on",
	"off": "off", "false": "off", "0": "off", "unlock": "off",
	"open":  "open",
	"close": "close",
}

// Dispatcher performs control dispatch against a remote client, installing
// optimistic overrides on bus for successful writes.
type Dispatcher struct {
	bus *sensorbus.Bus
}

// New builds a Dispatcher that installs overrides on bus after a
// successful remote call.
func New(bus *sensorbus.Bus) *Dispatcher {
	return &Dispatcher{bus: bus}
}

// Dispatch implements §4.7's four-step algorithm.
func (d *Dispatcher) Dispatch(ctx context.Context, client integration.RemoteClient, target Target, controlValue string) *ControlResult {
	result := &ControlResult{}

	domain, _, ok := strings.Cut(target.Key.IntegrationName, ".")
	if !ok {
		return result.fail("malformed integration key: missing domain prefix")
	}
	entityID := target.Key.IntegrationName

	canonical, numeric, isNumeric, err := translate(controlValue)
	if err != nil {
		return result.fail(err.Error())
	}

	var call func() error

	if isControllable(target.Payload) {
		call, err = resolveFromPayload(client, domain, entityID, target.Payload, canonical, numeric, isNumeric)
	} else {
		call, err = resolveBestEffort(client, domain, entityID, canonical, numeric, isNumeric)
	}
	if err != nil {
		return result.fail(err.Error())
	}
	if call == nil {
		return result.fail("unknown control value: " + controlValue)
	}

	if err := call(); err != nil {
		return result.fail(err.Error())
	}

	d.bus.Override(target.Key, canonical, 0)
	result.NewValue = &canonical
	return result
}

func isControllable(payload map[string]string) bool {
	return payload != nil && payload["is_controllable"] == "true"
}

// translate normalizes controlValue into its canonical string form and, for
// numeric control values, a parsed float.
func translate(controlValue string) (canonical string, numeric float64, isNumeric bool, err error) {
	lower := strings.ToLower(strings.TrimSpace(controlValue))
	if word, ok := discreteValues[lower]; ok {
		return word, 0, false, nil
	}
	if f, parseErr := strconv.ParseFloat(lower, 64); parseErr == nil {
		return lower, f, true, nil
	}
	// Pass through anything else verbatim (e.g. an ISO temperature or a
	// discrete label from the state's value range); the remote call sites
	// below reject it if it doesn't fit a known shape.
	return lower, 0, false, nil
}

// discreteServiceKeys maps a canonical discrete command to the payload key
// declaring its remote service name.
var discreteServiceKeys = map[string]string{
	"on": "on_service", "off": "off_service",
	"open": "open_service", "close": "close_service",
}

// resolveFromPayload implements §4.7 step 2: payload-declared services.
// Which payload key holds the service name depends on the parameter type:
// brightness piggybacks on the discrete on_service/off_service pair (there's
// no separate "dim" service in Home Assistant), while volume and position
// fall back to Home Assistant's own default service name when the payload
// doesn't declare set_service. Only temperature has no sensible default, so
// it's the one case where set_service is mandatory.
func resolveFromPayload(client integration.RemoteClient, domain, entityID string, payload map[string]string, canonical string, numeric float64, isNumeric bool) (func() error, error) {
	ctx := context.Background()

	if isNumeric {
		switch {
		case payload["supports_brightness"] == "true":
			return resolveBrightnessFromPayload(client, domain, entityID, payload, numeric)
		case payload["supports_volume"] == "true":
			return resolveNumericFromPayload(client, domain, entityID, payload, "volume_level", volumeMin, volumeMax, numeric, "volume_set")
		case payload["supports_position"] == "true":
			return resolveNumericFromPayload(client, domain, entityID, payload, "position", positionMin, positionMax, numeric, "set_cover_position")
		case payload["supports_temperature"] == "true":
			service := payload["set_service"]
			if service == "" {
				return nil, errNoDeclaredService("set_service")
			}
			return func() error {
				return client.CallService(ctx, domain, service, map[string]string{
					"entity_id":   entityID,
					"temperature": formatParam("temperature", numeric),
				})
			}, nil
		default:
			return nil, errUnsupportedNumeric(domain)
		}
	}

	serviceKey, ok := discreteServiceKeys[canonical]
	if !ok {
		return nil, nil
	}
	service := payload[serviceKey]
	if service == "" {
		return nil, errNoDeclaredService(serviceKey)
	}
	return func() error {
		return client.CallService(ctx, domain, service, map[string]string{"entity_id": entityID})
	}, nil
}

// resolveBrightnessFromPayload mirrors hass_controller.py's
// _control_brightness_value: 0% maps to off_service with no parameter, any
// other value maps to on_service with brightness_pct.
func resolveBrightnessFromPayload(client integration.RemoteClient, domain, entityID string, payload map[string]string, brightness float64) (func() error, error) {
	ctx := context.Background()
	if brightness < brightnessMin || brightness > brightnessMax {
		return nil, errOutOfRange("brightness_pct", brightnessMin, brightnessMax)
	}

	if brightness == 0 {
		service := payload["off_service"]
		if service == "" {
			return nil, errNoDeclaredService("off_service")
		}
		return func() error {
			return client.CallService(ctx, domain, service, map[string]string{"entity_id": entityID})
		}, nil
	}

	service := payload["on_service"]
	if service == "" {
		return nil, errNoDeclaredService("on_service")
	}
	return func() error {
		return client.CallService(ctx, domain, service, map[string]string{
			"entity_id":      entityID,
			"brightness_pct": formatParam("brightness_pct", brightness),
		})
	}, nil
}

// resolveNumericFromPayload handles the volume/position shape shared by
// hass_controller.py's _control_volume_value and _control_position_value:
// set_service is honored when declared, otherwise Home Assistant's own
// default service name for the parameter is used.
func resolveNumericFromPayload(client integration.RemoteClient, domain, entityID string, payload map[string]string, paramName string, lo, hi, value float64, defaultService string) (func() error, error) {
	ctx := context.Background()
	if value < lo || value > hi {
		return nil, errOutOfRange(paramName, lo, hi)
	}

	service := payload["set_service"]
	if service == "" {
		service = defaultService
	}
	return func() error {
		return client.CallService(ctx, domain, service, map[string]string{
			"entity_id": entityID,
			paramName:   formatParam(paramName, value),
		})
	}, nil
}

func formatParam(name string, value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// resolveBestEffort implements §4.7 step 3: a best-effort domain table used
// when no payload declares the device controllable.
func resolveBestEffort(client integration.RemoteClient, domain, entityID, canonical string, numeric float64, isNumeric bool) (func() error, error) {
	ctx := context.Background()

	if !isNumeric {
		if _, known := discreteServiceKeys[canonical]; !known {
			return nil, nil
		}
	}

	switch domain {
	case "cover":
		service := "open_cover"
		if canonical == "off" || canonical == "close" {
			service = "close_cover"
		}
		return func() error { return client.CallService(ctx, domain, service, map[string]string{"entity_id": entityID}) }, nil

	case "lock":
		// discreteValues already folds lock/unlock into on/off.
		service := "lock"
		if canonical == "off" {
			service = "unlock"
		}
		return func() error { return client.CallService(ctx, domain, service, map[string]string{"entity_id": entityID}) }, nil

	case "light", "switch":
		if isNumeric {
			if numeric < brightnessMin || numeric > brightnessMax {
				return nil, errOutOfRange("brightness_pct", brightnessMin, brightnessMax)
			}
			return func() error {
				return client.CallService(ctx, domain, "turn_on", map[string]string{
					"entity_id":      entityID,
					"brightness_pct": formatParam("brightness_pct", numeric),
				})
			}, nil
		}
		service := "turn_on"
		if canonical == "off" {
			service = "turn_off"
		}
		return func() error { return client.CallService(ctx, domain, service, map[string]string{"entity_id": entityID}) }, nil

	default:
		service := "turn_on"
		if canonical == "off" {
			service = "turn_off"
		}
		return func() error { return client.CallService(ctx, domain, service, map[string]string{"entity_id": entityID}) }, nil
	}
}
