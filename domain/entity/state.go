package entity

import "time"

// StateType is the closed enum determining an EntityState's rendering and
// aggregation rules.
type StateType string

const (
	StateTypeOnOff        StateType = "on_off"
	StateTypeOpenClose    StateType = "open_close"
	StateTypeMovement     StateType = "movement"
	StateTypePresence     StateType = "presence"
	StateTypeConnectivity StateType = "connectivity"
	StateTypeTemperature  StateType = "temperature"
	StateTypeHumidity     StateType = "humidity"
	StateTypeSoundLevel   StateType = "sound_level"
	StateTypeVideoStream  StateType = "video_stream"
	StateTypeBattery      StateType = "battery"
	StateTypeDiscrete     StateType = "discrete"
	StateTypeFreeForm     StateType = "free_form"
)

// DefaultDelegateTypes is the set of state types that auto-create an AREA
// delegate entity when their owning entity first enters a view.
var DefaultDelegateTypes = map[StateType]bool{
	StateTypeMovement:    true,
	StateTypePresence:    true,
	StateTypeSoundLevel:  true,
	StateTypeVideoStream: true,
}

// ValueRangeKind distinguishes how a State's legal values are described.
type ValueRangeKind string

const (
	ValueRangeDiscrete ValueRangeKind = "discrete"
	ValueRangeLabelMap ValueRangeKind = "label_map"
	ValueRangeFreeForm ValueRangeKind = "free_form"
)

// ValueRange describes the legal values an EntityState may take.
type ValueRange struct {
	Kind     ValueRangeKind    `json:"kind"`
	Discrete []string          `json:"discrete,omitempty"`
	LabelMap map[string]string `json:"label_map,omitempty"`
}

// State is a hidden observable/controllable fact about an Entity (e.g.
// "on/off", "temperature", "video_stream"). A state belongs to exactly one
// entity; an entity may have zero states.
type State struct {
	ID          string       `json:"id"`
	EntityID    string       `json:"entity_id"`
	StateType   StateType    `json:"state_type"`
	DisplayName string       `json:"display_name"`
	ValueRange  ValueRange   `json:"value_range"`
	Units       string       `json:"units,omitempty"`
	Sensors     []Sensor     `json:"sensors,omitempty"`
	Controllers []Controller `json:"controllers,omitempty"`
}

// Sensor reports values for exactly one EntityState. It carries its own
// IntegrationKey so the Sensor Response Bus can address it without joining
// through the state. Multiple sensors may report the same state; the most
// recent response wins for display.
type Sensor struct {
	ID      string `json:"id"`
	StateID string `json:"state_id"`
	Name    string `json:"name"`
	IntegrationKey
}

// Controller writes values to exactly one EntityState. It carries its own
// IntegrationKey and an opaque Payload the dispatcher uses to choose the
// right remote service call.
type Controller struct {
	ID      string            `json:"id"`
	StateID string            `json:"state_id"`
	Name    string            `json:"name"`
	Payload map[string]string `json:"payload,omitempty"`
	IntegrationKey
}

// Delegation is a directed edge from a principal EntityState to a delegate
// Entity: the delegate visually represents that state. (PrincipalStateID,
// DelegateEntityID) is unique.
type Delegation struct {
	ID               string    `json:"id"`
	PrincipalStateID string    `json:"principal_state_id"`
	DelegateEntityID string    `json:"delegate_entity_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// SensorResponse is a single value reported at the bus: (integration key,
// value, timestamp). Values are always strings at the bus; semantics live
// in the owning EntityState's StateType.
type SensorResponse struct {
	IntegrationKey
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
