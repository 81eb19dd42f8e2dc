package entity

import "testing"

func TestIntegrationKeyEmpty(t *testing.T) {
	if !(IntegrationKey{}).Empty() {
		t.Fatal("zero-value IntegrationKey should be Empty")
	}
	k := IntegrationKey{IntegrationID: "hass", IntegrationName: "light.kitchen"}
	if k.Empty() {
		t.Fatal("populated IntegrationKey should not be Empty")
	}
	if k.String() != "hass:light.kitchen" {
		t.Errorf("String() = %q, want %q", k.String(), "hass:light.kitchen")
	}
}

func TestHasUserAddedRelationships(t *testing.T) {
	e := &Entity{ID: "e1"}
	if e.HasUserAddedRelationships(false) {
		t.Fatal("bare entity should report no user-added relationships")
	}

	withGeometry := &Entity{ID: "e1", Geometry: &Geometry{LocationID: "loc1"}}
	if !withGeometry.HasUserAddedRelationships(false) {
		t.Fatal("entity with geometry should report a user-added relationship")
	}

	withView := &Entity{ID: "e1", ViewIDs: []string{"view1"}}
	if !withView.HasUserAddedRelationships(false) {
		t.Fatal("entity with a view membership should report a user-added relationship")
	}

	if !e.HasUserAddedRelationships(true) {
		t.Fatal("delegation edge alone should count as a user-added relationship")
	}
}

func TestDefaultDelegateTypes(t *testing.T) {
	for _, st := range []StateType{StateTypeMovement, StateTypePresence, StateTypeSoundLevel, StateTypeVideoStream} {
		if !DefaultDelegateTypes[st] {
			t.Errorf("expected %q to be a default delegate type", st)
		}
	}
	if DefaultDelegateTypes[StateTypeTemperature] {
		t.Error("temperature should not auto-delegate")
	}
}
