package hass

import (
	"context"
	"time"

	"github.com/hearthkeep/hub/internal/integration"
)

// pollInterval is how often the default monitor fetches /api/states.
const pollInterval = 15 * time.Second

// Gateway is the Home Assistant integration's capability record.
type Gateway struct{}

var _ integration.Gateway = Gateway{}

func (Gateway) Metadata() integration.Metadata {
	return integration.Metadata{
		ID:          "hass",
		Name:        "Home Assistant",
		Description: "Polls and controls devices exposed by a Home Assistant instance over its REST API.",
	}
}

func (Gateway) AttributeSpecs() []integration.AttributeSpec {
	return []integration.AttributeSpec{
		{Name: attrBaseURL, IsRequired: true, IsSecret: false},
		{Name: attrToken, IsRequired: true, IsSecret: true},
	}
}

func (Gateway) ManageView() integration.ViewSpec {
	return integration.ViewSpec{Label: "Home Assistant", Icon: "home-assistant"}
}

func (Gateway) CreateClient(attrs map[string]string) (integration.RemoteClient, error) {
	return NewClient(attrs)
}

// Monitor returns a Runnable that polls States() once per tick. The polled
// states are not published to the sensor response bus.
func (g Gateway) Monitor(client integration.RemoteClient) integration.Runnable {
	return &statesMonitor{client: client}
}

// Controller exposes client directly; Home Assistant's write path
// (CallService) needs no additional wrapping.
func (Gateway) Controller(client integration.RemoteClient) integration.RemoteClient {
	return client
}

func (Gateway) NotifySettingsChanged(client integration.RemoteClient) {}

func (Gateway) HealthStatus(ctx context.Context, client integration.RemoteClient) error {
	c, ok := client.(*Client)
	if !ok || c == nil {
		return nil
	}
	return c.Ping(ctx)
}

func (Gateway) ValidateConfiguration(attrs map[string]string) []error {
	var errs []error
	if attrs[attrBaseURL] == "" {
		errs = append(errs, errMissingAttr(attrBaseURL))
	}
	if attrs[attrToken] == "" {
		errs = append(errs, errMissingAttr(attrToken))
	}
	return errs
}

type missingAttrError struct{ name string }

func (e missingAttrError) Error() string { return e.name + " is required" }

func errMissingAttr(name string) error { return missingAttrError{name: name} }

// statesMonitor implements integration.Runnable by polling States() once
// per tick, the minimum viable default monitor: it proves the client is
// reachable and keeps the monitor framework's (C6) health tracking current.
// Reconciling the returned states into the store is the Sync Engine's job
// (C5, internal/sync.Engine.Sync), invoked by whatever owns the integration
// instance's lifecycle with its integration id in hand; Gateway.Monitor has
// no instance id to thread through, so it cannot call Sync itself.
type statesMonitor struct {
	client integration.RemoteClient
}

// ID is namespaced by the target Home Assistant instance's base URL so the
// monitor framework (C6) tracks multiple configured hass instances as
// distinct monitors instead of deduplicating them to one.
func (m *statesMonitor) ID() string {
	if c, ok := m.client.(*Client); ok {
		return "hass.states:" + c.BaseURL()
	}
	return "hass.states"
}

func (m *statesMonitor) Interval() time.Duration { return pollInterval }

func (m *statesMonitor) DoWork(ctx context.Context, client integration.RemoteClient) error {
	_, err := client.States(ctx)
	return err
}
