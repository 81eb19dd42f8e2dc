package sync

import "github.com/hearthkeep/hub/domain/entity"

// typeByDomain maps a remote domain prefix to the Entity type it yields.
// There is no device-class table; device_class does not affect the type.
var typeByDomain = map[string]entity.Type{
	"light":    entity.TypeLight,
	"switch":   entity.TypeSwitch,
	"climate":  entity.TypeClimate,
	"camera":   entity.TypeCamera,
	"lock":     entity.TypeLock,
	"cover":    entity.TypeCover,
	"sensor":   entity.TypeSensor,
	"binary_sensor": entity.TypeSensor,
}

// entityTypeFor picks a device group's Entity type from its member states'
// domains only: light, switch, climate, camera, lock and cover in that
// priority order, then sensor/binary_sensor. device_class is not consulted;
// a group with no mapped domain is TypeOther.
func entityTypeFor(g DeviceGroup) entity.Type {
	for _, priority := range []string{"light", "switch", "climate", "camera", "lock", "cover"} {
		for _, s := range g.States {
			if s.Domain == priority {
				return typeByDomain[priority]
			}
		}
	}
	for _, s := range g.States {
		if t, ok := typeByDomain[s.Domain]; ok {
			return t
		}
	}
	return entity.TypeOther
}

// alarmableDeviceClasses are binary-sensor device classes the sync engine
// registers event-definition hooks for when an integration's "add alarm
// events" flag is set.
var alarmableDeviceClasses = map[string]bool{
	"motion":       true,
	"connectivity": true,
	"opening":      true,
	"battery":      true,
}

func isAlarmable(s parsedState) bool {
	return s.Domain == "binary_sensor" && alarmableDeviceClasses[s.Attributes["device_class"]]
}

// stateTypeFor maps one flat remote state to the StateType its local
// EntityState should carry.
func stateTypeFor(s parsedState) entity.StateType {
	deviceClass := s.Attributes["device_class"]
	switch s.Domain {
	case "light", "switch":
		return entity.StateTypeOnOff
	case "cover":
		return entity.StateTypeOpenClose
	case "lock":
		return entity.StateTypeDiscrete
	case "camera":
		return entity.StateTypeVideoStream
	case "binary_sensor":
		switch deviceClass {
		case "motion":
			return entity.StateTypeMovement
		case "occupancy", "presence":
			return entity.StateTypePresence
		case "connectivity":
			return entity.StateTypeConnectivity
		default:
			return entity.StateTypeOnOff
		}
	case "sensor":
		switch deviceClass {
		case "temperature":
			return entity.StateTypeTemperature
		case "humidity":
			return entity.StateTypeHumidity
		case "sound_pressure", "noise":
			return entity.StateTypeSoundLevel
		case "battery":
			return entity.StateTypeBattery
		default:
			return entity.StateTypeFreeForm
		}
	default:
		return entity.StateTypeFreeForm
	}
}

// controllableDomains are domains the control dispatcher (C7) can write to
// via CallService; the sync engine attaches a Controller only for these.
var controllableDomains = map[string]bool{
	"light":  true,
	"switch": true,
	"lock":   true,
	"cover":  true,
	"climate": true,
}

// controllerPayload builds the opaque payload the control dispatcher keys
// its translation on, per the S1 fixture: {is_controllable, on_service,
// off_service, domain}.
func controllerPayload(domain string) map[string]string {
	switch domain {
	case "light", "switch":
		return map[string]string{
			"is_controllable": "true",
			"domain":          domain,
			"on_service":      "turn_on",
			"off_service":     "turn_off",
		}
	case "lock":
		return map[string]string{
			"is_controllable": "true",
			"domain":          domain,
			"on_service":      "lock",
			"off_service":     "unlock",
		}
	case "cover":
		return map[string]string{
			"is_controllable": "true",
			"domain":          domain,
			"on_service":      "open_cover",
			"off_service":     "close_cover",
		}
	case "climate":
		return map[string]string{
			"is_controllable": "true",
			"domain":          domain,
			"on_service":      "set_temperature",
		}
	default:
		return map[string]string{"is_controllable": "false", "domain": domain}
	}
}
