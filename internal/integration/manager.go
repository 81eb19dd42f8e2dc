package integration

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hearthkeep/hub/internal/hubcore/errs"
	"github.com/hearthkeep/hub/internal/sensorbus"
)

// HealthCode is the classification a Manager's health snapshot carries,
// per §4.4's reload-time classification rules.
type HealthCode string

const (
	HealthDisabled        HealthCode = "DISABLED"
	HealthConfigError     HealthCode = "CONFIG_ERROR"
	HealthConnectionError HealthCode = "CONNECTION_ERROR"
	HealthTemporaryError  HealthCode = "TEMPORARY_ERROR"
	HealthHealthy         HealthCode = "HEALTHY"
)

// authKeywords/connectivityKeywords drive CONNECTION_ERROR
// sub-classification; kept for detail surfaced in HealthSnapshot.Detail,
// not for a separate top-level code.
var authKeywords = []string{"auth", "unauthorized", "forbidden", "token", "credential"}
var connectivityKeywords = []string{"connect", "network", "timeout", "unreachable", "resolve"}

// HealthSnapshot is a point-in-time health read on a Manager.
type HealthSnapshot struct {
	Code      HealthCode
	Detail    string
	CheckedAt time.Time
}

// AttributeValue is one resolved configuration attribute.
type AttributeValue struct {
	Name     string
	Value    string
	IsSecret bool
}

// ChangeListener is notified after every reload, including one that ends in
// DISABLED or CONFIG_ERROR. Per §4.4 it must be idempotent and tolerate
// Client() returning nil mid-rebuild.
type ChangeListener func()

// Manager is the per-configured-instance runtime for one integration: its
// attributes, lazily-built client, change-listener set, and health
// snapshot (§4.4).
type Manager struct {
	mu sync.RWMutex

	integrationID string
	gateway       Gateway
	enabled       bool

	attrs  map[string]AttributeValue
	client RemoteClient
	health HealthSnapshot

	listeners []ChangeListener
	codec     *SecretCodec

	overrideCache *sensorbus.Bus
}

// NewManager constructs a Manager for one configured integration instance.
// codec may be nil, in which case secret attributes are stored in the clear
// in memory (still never persisted unencrypted — callers own persistence).
func NewManager(integrationID string, gateway Gateway, codec *SecretCodec) *Manager {
	return &Manager{
		integrationID: integrationID,
		gateway:       gateway,
		attrs:         make(map[string]AttributeValue),
		codec:         codec,
		health:        HealthSnapshot{Code: HealthDisabled, CheckedAt: time.Now()},
	}
}

// OnChange registers a listener invoked at the end of every Reload, whatever
// health it ends in.
func (m *Manager) OnChange(l ChangeListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// SetOverrideCache wires the sensor response bus whose control-command
// override cache gets cleared on every Reload, per §5. Optional: a Manager
// with no override cache set simply skips the clear.
func (m *Manager) SetOverrideCache(bus *sensorbus.Bus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrideCache = bus
}

// SetEnabled flips whether this integration instance should hold a live
// client at all; disabling does not clear stored attributes.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()
}

// SetAttributes replaces the resolved attribute set and reloads the client.
// Callers are responsible for persisting attrs to the Domain Model Store
// before calling this, per §4.4's "persist → reload → notify" sequence.
func (m *Manager) SetAttributes(ctx context.Context, values []AttributeValue) error {
	m.mu.Lock()
	attrs := make(map[string]AttributeValue, len(values))
	for _, v := range values {
		attrs[v.Name] = v
	}
	m.attrs = attrs
	m.mu.Unlock()

	return m.Reload(ctx)
}

func (m *Manager) resolvedValues() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.attrs))
	for name, v := range m.attrs {
		value := v.Value
		if v.IsSecret && m.codec != nil {
			if plain, err := m.codec.Decrypt(value); err == nil {
				value = plain
			}
		}
		out[name] = value
	}
	return out
}

// Reload rebuilds the client from the current attribute set, classifies
// health, and notifies listeners. The client is set to nil for the
// duration of a failed rebuild rather than left stale.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.RLock()
	enabled := m.enabled
	cache := m.overrideCache
	m.mu.RUnlock()

	if cache != nil {
		cache.ClearOverridesForIntegration(m.integrationID)
	}

	if !enabled {
		m.setHealth(HealthSnapshot{Code: HealthDisabled, CheckedAt: time.Now()})
		m.setClient(nil)
		m.notifyListeners()
		return nil
	}

	values := m.resolvedValues()
	if missing := firstMissingRequired(m.gateway.AttributeSpecs(), values); missing != "" {
		m.setClient(nil)
		err := errs.IntegrationAttributeError(m.integrationID, missing, "required attribute is absent or empty")
		m.setHealth(HealthSnapshot{Code: HealthConfigError, Detail: err.Error(), CheckedAt: time.Now()})
		m.notifyListeners()
		return err
	}

	client, err := m.gateway.CreateClient(values)
	if err != nil {
		m.setClient(nil)
		m.setHealth(HealthSnapshot{Code: HealthConfigError, Detail: err.Error(), CheckedAt: time.Now()})
		m.notifyListeners()
		return err
	}

	m.setClient(client)
	m.gateway.NotifySettingsChanged(client)

	if probeErr := m.gateway.HealthStatus(ctx, client); probeErr != nil {
		m.setHealth(classifyProbeFailure(probeErr))
		m.notifyListeners()
		return nil
	}

	m.setHealth(HealthSnapshot{Code: HealthHealthy, CheckedAt: time.Now()})
	m.notifyListeners()
	return nil
}

func firstMissingRequired(specs []AttributeSpec, values map[string]string) string {
	for _, spec := range specs {
		if !spec.IsRequired {
			continue
		}
		if strings.TrimSpace(values[spec.Name]) == "" {
			return spec.Name
		}
	}
	return ""
}

// classifyProbeFailure implements §4.4's keyword-based CONNECTION_ERROR
// sub-classification, falling back to TEMPORARY_ERROR for anything else.
func classifyProbeFailure(err error) HealthSnapshot {
	msg := strings.ToLower(err.Error())
	for _, kw := range authKeywords {
		if strings.Contains(msg, kw) {
			return HealthSnapshot{Code: HealthConnectionError, Detail: "auth: " + err.Error(), CheckedAt: time.Now()}
		}
	}
	for _, kw := range connectivityKeywords {
		if strings.Contains(msg, kw) {
			return HealthSnapshot{Code: HealthConnectionError, Detail: "connectivity: " + err.Error(), CheckedAt: time.Now()}
		}
	}
	return HealthSnapshot{Code: HealthTemporaryError, Detail: err.Error(), CheckedAt: time.Now()}
}

func (m *Manager) setClient(c RemoteClient) {
	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
}

func (m *Manager) setHealth(h HealthSnapshot) {
	m.mu.Lock()
	m.health = h
	m.mu.Unlock()
}

func (m *Manager) notifyListeners() {
	m.mu.RLock()
	listeners := append([]ChangeListener(nil), m.listeners...)
	m.mu.RUnlock()
	for _, l := range listeners {
		l()
	}
}

// Client returns the current RemoteClient, or nil while disabled or
// mid-rebuild. Callers (notably listeners) must tolerate nil.
func (m *Manager) Client() RemoteClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Monitor returns this instance's default polling Runnable bound to its
// current client, or nil if there is no live client or the gateway has no
// default monitor. The Periodic Monitor Framework (C6) calls this during
// discovery.
func (m *Manager) Monitor() Runnable {
	client := m.Client()
	if client == nil {
		return nil
	}
	return m.gateway.Monitor(client)
}

// Controller returns this instance's control-dispatch target bound to its
// current client, or nil if there is no live client.
func (m *Manager) Controller() RemoteClient {
	client := m.Client()
	if client == nil {
		return nil
	}
	return m.gateway.Controller(client)
}

// Health returns the current health snapshot.
func (m *Manager) Health() HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// ValidateConfiguration delegates to the gateway with relaxed requirements,
// letting the UI surface field-level errors before save.
func (m *Manager) ValidateConfiguration(values map[string]string) []error {
	return m.gateway.ValidateConfiguration(values)
}

// Name satisfies lifecycle.Service so a Manager can live in a
// lifecycle.ServiceContainer keyed by integration instance id.
func (m *Manager) Name() string { return m.integrationID }

// Start reloads the client once at startup.
func (m *Manager) Start(ctx context.Context) error {
	return m.Reload(ctx)
}

// Stop tears down the held client. RemoteClient has no Close method in the
// general contract; integrations that need one register it as a listener
// closure over their own client type instead.
func (m *Manager) Stop(ctx context.Context) error {
	m.setClient(nil)
	return nil
}
