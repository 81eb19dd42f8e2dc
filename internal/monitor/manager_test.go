package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearthkeep/hub/internal/integration"
)

type noopClient struct{}

func (noopClient) States(ctx context.Context) ([]integration.RemoteState, error) { return nil, nil }
func (noopClient) SetState(ctx context.Context, entityID, value string) error    { return nil }
func (noopClient) CallService(ctx context.Context, domain, service string, params map[string]string) error {
	return nil
}

type monitoredRunnable struct{ id string }

func (r monitoredRunnable) ID() string                  { return r.id }
func (monitoredRunnable) Interval() time.Duration       { return time.Hour }
func (monitoredRunnable) DoWork(context.Context, integration.RemoteClient) error { return nil }

type monitoredGateway struct{}

func (monitoredGateway) Metadata() integration.Metadata { return integration.Metadata{ID: "demo"} }
func (monitoredGateway) AttributeSpecs() []integration.AttributeSpec { return nil }
func (monitoredGateway) ManageView() integration.ViewSpec            { return integration.ViewSpec{} }
func (monitoredGateway) CreateClient(attrs map[string]string) (integration.RemoteClient, error) {
	return noopClient{}, nil
}
func (monitoredGateway) Monitor(client integration.RemoteClient) integration.Runnable {
	return monitoredRunnable{id: "demo.poll"}
}
func (monitoredGateway) Controller(client integration.RemoteClient) integration.RemoteClient {
	return client
}
func (monitoredGateway) NotifySettingsChanged(integration.RemoteClient)             {}
func (monitoredGateway) HealthStatus(context.Context, integration.RemoteClient) error { return nil }
func (monitoredGateway) ValidateConfiguration(map[string]string) []error           { return nil }

func TestManagerDiscoversMonitorsFromRegisteredInstances(t *testing.T) {
	reg := integration.NewRegistry()
	require.NoError(t, reg.RegisterGateway(monitoredGateway{}))
	mgr, err := reg.AddInstance("demo-1", "demo", nil)
	require.NoError(t, err)
	mgr.SetEnabled(true)
	require.NoError(t, mgr.Reload(context.Background()))

	monitors := NewManager(false)
	require.NoError(t, monitors.Discover(reg))

	snap := monitors.Snapshot()
	require.Contains(t, snap, "demo.poll")
}

func TestOverallStatusIsHealthyWithNoMonitors(t *testing.T) {
	monitors := NewManager(false)
	require.Equal(t, StatusHealthy, monitors.OverallStatus())
}

func TestOverallStatusReflectsWorstDiscoveredMonitor(t *testing.T) {
	reg := integration.NewRegistry()
	require.NoError(t, reg.RegisterGateway(monitoredGateway{}))
	mgr, err := reg.AddInstance("demo-1", "demo", nil)
	require.NoError(t, err)
	mgr.SetEnabled(true)
	require.NoError(t, mgr.Reload(context.Background()))

	monitors := NewManager(true) // suppressed runners record DISABLED
	require.NoError(t, monitors.Discover(reg))

	require.Equal(t, StatusDisabled, monitors.OverallStatus())
}

func TestSuppressedManagerNeverStarts(t *testing.T) {
	reg := integration.NewRegistry()
	require.NoError(t, reg.RegisterGateway(monitoredGateway{}))
	mgr, err := reg.AddInstance("demo-1", "demo", nil)
	require.NoError(t, err)
	mgr.SetEnabled(true)
	require.NoError(t, mgr.Reload(context.Background()))

	monitors := NewManager(true)
	require.NoError(t, monitors.Discover(reg))
	require.NoError(t, monitors.Start(context.Background()))

	snap := monitors.Snapshot()
	require.Equal(t, StatusDisabled, snap["demo.poll"].Status)
}
