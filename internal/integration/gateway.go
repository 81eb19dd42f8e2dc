// Package integration defines the capability contract every integration
// ships (Gateway), and the per-configured-instance runtime that holds its
// attributes, lazily-built client, and health snapshot (Manager), plus the
// registry of known integration types (Registry).
package integration

import (
	"context"
	"time"
)

// Metadata describes an integration type for display and self-identification.
type Metadata struct {
	ID          string
	Name        string
	Description string
}

// AttributeSpec declares one configuration attribute a Gateway accepts.
type AttributeSpec struct {
	Name       string
	IsRequired bool
	IsSecret   bool
}

// ViewSpec is the integration's contribution to the manage-view surface:
// a label and icon hint the UI uses when letting a user add this
// integration's entities to a view. Kept intentionally thin; the actual
// view membership lives in the domain model (entity.Entity.ViewIDs).
type ViewSpec struct {
	Label string
	Icon  string
}

// RemoteState is one flat state record as reported by a remote integration
// API, prior to the sync engine's device-grouping pass (§4.5).
type RemoteState struct {
	EntityID     string
	DeviceGroup  string // stable device-group id if the remote protocol exposes one, else ""
	DeviceClass  string
	State        string
	Attributes   map[string]string
	LastReported time.Time
}

// RemoteClient is the lazily-built, rebuilt-on-settings-change client a
// Gateway constructs from its resolved attributes. It is the single surface
// the sync engine, monitor, and control dispatcher use to talk to a remote
// integration.
type RemoteClient interface {
	// States returns the remote's current flat state list (sync engine
	// phase 1, and the default poll-driven monitor's sensor feed).
	States(ctx context.Context) ([]RemoteState, error)
	// SetState pushes entityID directly to value, used by integrations
	// whose remote protocol exposes a direct state setter.
	SetState(ctx context.Context, entityID, value string) error
	// CallService invokes a named remote service with parameters, the
	// primary mechanism the control dispatcher (C7) uses.
	CallService(ctx context.Context, domain, service string, params map[string]string) error
}

// Runnable is what the Periodic Monitor Framework (C6) drives: one do_work
// call per interval tick against an already-constructed RemoteClient.
type Runnable interface {
	ID() string
	Interval() time.Duration
	DoWork(ctx context.Context, client RemoteClient) error
}

// Gateway is the capability record every integration ships, per §4.3/§4.4.
type Gateway interface {
	Metadata() Metadata
	AttributeSpecs() []AttributeSpec
	ManageView() ViewSpec

	// CreateClient builds a RemoteClient from resolved attribute values.
	// Implementations must fail with errs.IntegrationAttributeError if a
	// required attribute is absent or empty.
	CreateClient(attrs map[string]string) (RemoteClient, error)

	// Monitor returns the integration's default polling monitor, wired
	// against client by the Manager. Gateways with no default monitor
	// (control-only integrations) may return nil.
	Monitor(client RemoteClient) Runnable

	// Controller exposes the RemoteClient itself as the dispatch target;
	// a distinct method from Monitor lets an integration wrap or restrict
	// write access separately from its polling surface if it needs to.
	Controller(client RemoteClient) RemoteClient

	// NotifySettingsChanged is called after a successful client rebuild so
	// the gateway can flush any state it cached from the old client.
	NotifySettingsChanged(client RemoteClient)

	// HealthStatus probes client and returns nil if healthy.
	HealthStatus(ctx context.Context, client RemoteClient) error

	// ValidateConfiguration runs with relaxed requirements (partial attrs
	// allowed) so the UI can surface field-level errors before save.
	ValidateConfiguration(attrs map[string]string) []error
}
