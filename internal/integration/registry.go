package integration

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hearthkeep/hub/internal/lifecycle"
	"github.com/hearthkeep/hub/internal/sensorbus"
)

// Registry is the Integration Registry (§4.3): a catalog of known Gateway
// types plus the live Manager for each configured instance of one. Gateway
// types are registered once at startup by cmd/hubd, which calls
// RegisterGateway for each one; Manager instances come and go as the user adds, edits,
// or removes integrations.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway

	managers      *lifecycle.ServiceContainer
	overrideCache *sensorbus.Bus
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[string]Gateway),
		managers: lifecycle.NewServiceContainer(),
	}
}

// RegisterGateway adds a Gateway type, keyed by its Metadata.ID. Intended to
// be called once per integration type at process startup.
func (r *Registry) RegisterGateway(g Gateway) error {
	id := g.Metadata().ID
	if id == "" {
		return fmt.Errorf("integration: gateway metadata ID must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.gateways[id]; exists {
		return fmt.Errorf("integration: gateway %q already registered", id)
	}
	r.gateways[id] = g
	return nil
}

// Gateway looks up a registered gateway type by id.
func (r *Registry) Gateway(id string) (Gateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[id]
	return g, ok
}

// GatewayTypes returns metadata for every registered gateway type, sorted by
// ID for stable display ordering.
func (r *Registry) GatewayTypes() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.gateways))
	for _, g := range r.gateways {
		out = append(out, g.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetOverrideCache wires the sensor response bus passed on to every Manager
// this registry creates, so each clears its control-command overrides on
// reload (§5). Call before AddInstance; a nil cache is a no-op.
func (r *Registry) SetOverrideCache(bus *sensorbus.Bus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrideCache = bus
}

// AddInstance creates a Manager for one configured instance of gatewayID and
// adds it to the registry under instanceID. Returns an error if gatewayID is
// unknown or instanceID is already in use.
func (r *Registry) AddInstance(instanceID, gatewayID string, codec *SecretCodec) (*Manager, error) {
	gw, ok := r.Gateway(gatewayID)
	if !ok {
		return nil, fmt.Errorf("integration: unknown gateway type %q", gatewayID)
	}
	mgr := NewManager(instanceID, gw, codec)
	r.mu.RLock()
	cache := r.overrideCache
	r.mu.RUnlock()
	if cache != nil {
		mgr.SetOverrideCache(cache)
	}
	if err := r.managers.Add(mgr); err != nil {
		return nil, err
	}
	return mgr, nil
}

// ReplaceInstance swaps the Manager registered under instanceID, used after
// a configuration reload that needs a fresh Manager (e.g. gateway type
// changed). Ordinary attribute edits should call Manager.SetAttributes
// instead, which rebuilds the client in place.
func (r *Registry) ReplaceInstance(mgr *Manager) {
	r.managers.Replace(mgr)
}

// Instance looks up a configured instance's Manager by id.
func (r *Registry) Instance(instanceID string) (*Manager, bool) {
	svc, ok := r.managers.GetService(instanceID)
	if !ok {
		return nil, false
	}
	mgr, ok := svc.(*Manager)
	return mgr, ok
}

// Instances returns every configured instance's Manager, in add order.
func (r *Registry) Instances() []*Manager {
	services := r.managers.ListServices()
	out := make([]*Manager, 0, len(services))
	for _, svc := range services {
		if mgr, ok := svc.(*Manager); ok {
			out = append(out, mgr)
		}
	}
	return out
}

// Container exposes the underlying ServiceContainer so a top-level
// lifecycle.Manager can start/stop every configured instance alongside the
// rest of the process's services.
func (r *Registry) Container() *lifecycle.ServiceContainer {
	return r.managers
}
