package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hearthkeep/hub/internal/integration"
)

// hostMonitorInterval is intentionally longer than the reconnaissance
// interval resource_monitor.go used upstream — the hub has no per-campaign
// kill-switch use case, just an operator-facing health signal.
const hostMonitorInterval = 30 * time.Second

const (
	cpuWarningPercent = 85.0
	memWarningPercent = 85.0
)

// HostMonitor is the hub's built-in monitor for the process's own host: CPU
// and memory pressure, reported as a WARNING-classified error so it folds
// into the normal monitor health machinery without a bespoke status type.
type HostMonitor struct{}

var _ integration.Runnable = (*HostMonitor)(nil)

// NewHostMonitor constructs the built-in host resource monitor.
func NewHostMonitor() *HostMonitor { return &HostMonitor{} }

func (HostMonitor) ID() string { return "host" }

func (HostMonitor) Interval() time.Duration { return hostMonitorInterval }

// DoWork ignores client entirely; the host monitor has no remote endpoint.
func (HostMonitor) DoWork(ctx context.Context, client integration.RemoteClient) error {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return fmt.Errorf("temporary: read cpu usage: %w", err)
	}
	var cpuPercent float64
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("temporary: read memory usage: %w", err)
	}

	if cpuPercent >= cpuWarningPercent {
		return fmt.Errorf("temporary: host cpu usage at %.1f%%", cpuPercent)
	}
	if memInfo.UsedPercent >= memWarningPercent {
		return fmt.Errorf("temporary: host memory usage at %.1f%%", memInfo.UsedPercent)
	}
	return nil
}
