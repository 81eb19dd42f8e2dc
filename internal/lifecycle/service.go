package lifecycle

import "context"

// Service represents a lifecycle-managed component. Integration managers,
// monitor runners and the weather data-source runners implement this so the
// manager can start and stop them deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// LifecycleService is a Service that also reports readiness through Ready.
// The ops mux's /readyz and deep health check do not call Ready.
type LifecycleService interface {
	Service
	Ready(ctx context.Context) error
}

// Lifecycle embeds into a service to provide default no-op start/stop/ready
// handling; override the methods that matter.
type Lifecycle struct{}

func (Lifecycle) Name() string { return "" }

func (Lifecycle) Start(ctx context.Context) error { return nil }

func (Lifecycle) Stop(ctx context.Context) error { return nil }

func (Lifecycle) Ready(ctx context.Context) error { return nil }

// NoopService is a convenient Service for modules with no background work.
type NoopService struct {
	ServiceName string
}

func (n NoopService) Name() string { return n.ServiceName }

func (NoopService) Start(context.Context) error { return nil }

func (NoopService) Stop(context.Context) error { return nil }
