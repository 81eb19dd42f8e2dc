// Package aggregate implements the Interval Aggregation Engine (C9):
// merging overlapping readings from several differently-prioritized
// sources into canonical fixed-length time intervals, per spec §4.9.
package aggregate

import "time"

// Kind tags which of DataPoint's value fields is live, per §9's
// "dynamic-typed records become tagged variants" note.
type Kind string

const (
	KindNumeric   Kind = "numeric"
	KindBoolean   Kind = "boolean"
	KindTimeOfDay Kind = "time_of_day"
	KindString    Kind = "string"
)

// DataPoint is one source's reading for a single record field at a single
// source interval. Exactly one value field is meaningful, selected by Kind.
type DataPoint struct {
	Kind           Kind
	Station        string
	SourceDateTime time.Time

	// Numeric
	QuantityMin *float64
	QuantityAve float64
	QuantityMax *float64
	Units       string

	// Boolean
	BoolValue bool

	// TimeOfDay
	TimeValue time.Time

	// String
	StringValue string
}

// Record is implemented by a concrete weather/environmental record type
// (e.g. current conditions, daily forecast) whose fields are all
// DataPoints. Field access goes through a closed name-keyed switch in each
// implementation rather than reflection, per §9's explicit guidance.
type Record interface {
	// FieldNames lists every DataPoint-valued field this record carries.
	FieldNames() []string
	// GetField returns the current value of the named field, or nil if
	// unset. The returned pointer must not be retained past the call that
	// produced it — callers needing to keep a value should copy it.
	GetField(name string) *DataPoint
	// SetField replaces the named field's value; dp may be nil to clear it.
	SetField(name string, dp *DataPoint)
}

// Source identifies a weather/data provider contributing readings, with a
// priority used to pick among overlapping contributors for a field.
// Lower Priority wins; ties are broken by lexicographically lower ID.
type Source struct {
	ID       string
	Priority int
}
