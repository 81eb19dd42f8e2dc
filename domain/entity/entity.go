// Package entity holds the hub's core relational data model: entities,
// their hidden states, the sensors/controllers that report/write those
// states, and the delegation graph that lets one entity visually stand in
// for another's state.
package entity

import "time"

// Type is the closed enumeration of entity kinds driving default visuals.
type Type string

const (
	TypeLight     Type = "light"
	TypeSwitch    Type = "switch"
	TypeSensor    Type = "sensor"
	TypeClimate   Type = "climate"
	TypeCamera    Type = "camera"
	TypeLock      Type = "lock"
	TypeCover     Type = "cover"
	TypeArea      Type = "area"
	TypeAppliance Type = "appliance"
	TypeOther     Type = "other"
)

// IntegrationKey cross-references a local model row against an external
// object. Opaque to the core; stable for the lifetime of the remote object.
type IntegrationKey struct {
	IntegrationID   string `json:"integration_id"`
	IntegrationName string `json:"integration_name"`
}

func (k IntegrationKey) String() string {
	return k.IntegrationID + ":" + k.IntegrationName
}

// Empty reports whether the key carries no remote reference (locally
// user-created object).
func (k IntegrationKey) Empty() bool {
	return k.IntegrationID == "" && k.IntegrationName == ""
}

// Attribute is a typed name/value fact about an Entity, with append-only
// history: restoring a prior value creates a new history row rather than
// mutating the old one.
type Attribute struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	IsSecret  bool      `json:"is_secret"`
	CreatedAt time.Time `json:"created_at"`
}

// Geometry is an entity's optional visual placement: either a point
// position or an SVG path, scoped to one location/floorplan.
type Geometry struct {
	LocationID string   `json:"location_id"`
	SVGPath    string   `json:"svg_path,omitempty"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
}

// Entity is a physical device, software artifact, or abstract region (e.g.
// "kitchen area"). Within one integration, (IntegrationID, IntegrationName)
// is unique — see IntegrationKey.
type Entity struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	EntityType    Type   `json:"entity_type"`
	CanUserDelete bool   `json:"can_user_delete"`
	IntegrationKey
	Attributes    []Attribute `json:"attributes,omitempty"`
	States        []State     `json:"states,omitempty"`
	Geometry      *Geometry   `json:"geometry,omitempty"`
	ViewIDs       []string    `json:"view_ids,omitempty"`
	CollectionIDs []string    `json:"collection_ids,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// HasUserAddedRelationships reports whether this entity carries any
// relationship the sync engine did not itself create: geometry, a view
// membership, a collection membership, or a delegation edge on either side.
// The sync engine's intelligent-deletion rule uses this to decide whether a
// no-longer-reported remote device's local entity should survive.
func (e *Entity) HasUserAddedRelationships(hasDelegationEdge bool) bool {
	return e.Geometry != nil || len(e.ViewIDs) > 0 || len(e.CollectionIDs) > 0 || hasDelegationEdge
}
