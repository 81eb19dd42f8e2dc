package monitor

import (
	"context"
	"sync"

	"github.com/hearthkeep/hub/internal/integration"
	"github.com/hearthkeep/hub/internal/lifecycle"
)

// Manager discovers one Runner per configured integration instance that
// exposes a default monitor, instantiates and starts each exactly once, and
// exposes a read-only snapshot list of HealthStatusProviders, per §4.6. When
// Suppress is set (test/dev), runners are built but never started.
type Manager struct {
	mu      sync.RWMutex
	runners []*Runner
	life    *lifecycle.Manager
	suppress bool
}

// NewManager builds an empty Manager. suppress mirrors the global "suppress
// monitors" switch from §6's CLI surface.
func NewManager(suppress bool) *Manager {
	return &Manager{life: lifecycle.NewManager(), suppress: suppress}
}

// Discover builds a Runner for every configured integration instance whose
// Gateway declares a default monitor, registering each with the underlying
// lifecycle.Manager. Safe to call multiple times as instances are added;
// already-discovered instances are not duplicated.
func (m *Manager) Discover(reg *integration.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	known := make(map[string]bool, len(m.runners))
	for _, r := range m.runners {
		known[r.ID()] = true
	}

	for _, inst := range reg.Instances() {
		runnable := inst.Monitor()
		if runnable == nil || known[runnable.ID()] {
			continue
		}
		runner := NewRunner(runnable, inst.Client())
		if m.suppress {
			runner.health.RecordDisabled()
		}
		if err := m.life.Register(runner); err != nil {
			return err
		}
		m.runners = append(m.runners, runner)
	}
	return nil
}

// AddHostMonitor registers the built-in host resource monitor alongside
// integration monitors.
func (m *Manager) AddHostMonitor(hm *HostMonitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	runner := NewRunner(hm, nil)
	if err := m.life.Register(runner); err != nil {
		return err
	}
	m.runners = append(m.runners, runner)
	return nil
}

// Start runs every discovered runner's lifecycle, unless suppressed.
func (m *Manager) Start(ctx context.Context) error {
	if m.suppress {
		return nil
	}
	return m.life.Start(ctx)
}

// Stop tears down every running runner.
func (m *Manager) Stop(ctx context.Context) error {
	if m.suppress {
		return nil
	}
	return m.life.Stop(ctx)
}

// Snapshot returns a read-only health snapshot for every discovered
// monitor, keyed by monitor id.
func (m *Manager) Snapshot() map[string]Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Snapshot, len(m.runners))
	for _, r := range m.runners {
		out[r.ID()] = r.Health()
	}
	return out
}

// OverallStatus folds every discovered monitor's status into the single
// worst-of value a consolidated dashboard view would show, the core-only
// equivalent of a presentation-layer status rollup. An empty registry
// reports HEALTHY, matching HealthStatus's own zero-sources convention.
func (m *Manager) OverallStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	worst := StatusHealthy
	for _, r := range m.runners {
		worst = worseOf(worst, r.Health().Status)
	}
	return worst
}
