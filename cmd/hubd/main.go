package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hearthkeep/hub/internal/control"
	"github.com/hearthkeep/hub/internal/delegation"
	"github.com/hearthkeep/hub/internal/hubconfig"
	"github.com/hearthkeep/hub/internal/hublog"
	"github.com/hearthkeep/hub/internal/httpmw"
	"github.com/hearthkeep/hub/internal/integration"
	"github.com/hearthkeep/hub/internal/lifecycle"
	"github.com/hearthkeep/hub/internal/metrics"
	"github.com/hearthkeep/hub/internal/monitor"
	"github.com/hearthkeep/hub/internal/sensorbus"
	"github.com/hearthkeep/hub/internal/store"
	"github.com/hearthkeep/hub/internal/store/memstore"
	"github.com/hearthkeep/hub/internal/store/postgres"
	"github.com/hearthkeep/hub/internal/svchealth"
	"github.com/hearthkeep/hub/internal/sync"
	"github.com/hearthkeep/hub/internal/weather"
	"github.com/hearthkeep/hub/integrations/hass"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address for the ops mux (defaults to config or :8080)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides config/env; in-memory storage when empty)")
	configPath := flag.String("config", "", "Path to hub.yaml configuration file")
	runMigrations := flag.Bool("migrate", true, "run embedded schema migrations on startup (ignored for in-memory storage)")
	suppressMonitors := flag.Bool("suppress-monitors", false, "build monitors but never start them, for local development")
	flag.Parse()

	logger := hublog.NewFromEnv("hubd")

	cfg := hubconfig.LoadOrDefault(strings.TrimSpace(*configPath))

	dsnVal := resolveDSN(*dsn, cfg)
	listenAddr := resolveAddr(*addr, cfg)

	rootCtx := context.Background()

	st, closeStore := openStore(rootCtx, dsnVal, *runMigrations, logger)
	defer closeStore()

	bus := sensorbus.New()
	defer bus.Close()

	integrationRegistry := integration.NewRegistry()
	integrationRegistry.SetOverrideCache(bus)
	if err := integrationRegistry.RegisterGateway(hass.Gateway{}); err != nil {
		log.Fatalf("register hass gateway: %v", err)
	}

	core := &coreRuntime{
		bus:        bus,
		store:      st,
		registry:   integrationRegistry,
		sync:       sync.New(st, logger),
		delegation: delegation.New(st),
	}
	core.control = control.New(core.bus)

	monitors := monitor.NewManager(*suppressMonitors)
	if err := monitors.Discover(integrationRegistry); err != nil {
		log.Fatalf("discover monitors: %v", err)
	}
	if err := monitors.AddHostMonitor(monitor.NewHostMonitor()); err != nil {
		log.Fatalf("register host monitor: %v", err)
	}

	weatherLoc := time.Local
	weatherRegistry := weather.NewRegistry(weatherLoc)

	life := lifecycle.NewManager()
	for _, svc := range weatherRegistry.Services() {
		if err := life.Register(svc); err != nil {
			log.Fatalf("register weather service: %v", err)
		}
	}

	met := metrics.New("hubd")

	probes := svchealth.NewProbeManager(10 * time.Second)
	deepHealth := svchealth.NewDeepHealthChecker(5 * time.Second)
	deepHealth.Register("store", svchealth.DatabaseHealthCheck("store", st.HealthCheck))

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	if err := monitors.Start(ctx); err != nil {
		log.Fatalf("start monitors: %v", err)
	}
	if err := life.Start(ctx); err != nil {
		log.Fatalf("start weather services: %v", err)
	}
	probes.SetReady(true)
	probes.SetLive(true)

	server := &http.Server{
		Addr:    listenAddr,
		Handler: opsMux(probes, deepHealth, monitors, integrationRegistry, met, "hubd"),
	}

	go func() {
		logger.Infof("hubd listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ops mux: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	probes.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = server.Shutdown(shutdownCtx)
	_ = life.Stop(shutdownCtx)
	_ = monitors.Stop(shutdownCtx)
	cancel()
}

// coreRuntime bundles the Sensor Response Bus, the Sync Engine, the
// Controller Dispatcher, and the Delegation Resolver: the set of core
// operations a registered integration gateway or the (out-of-scope)
// presentation layer drives, per instance, through integrationRegistry.
// hubd wires them here so they're available to that caller; it does not
// drive them itself on a timer, since which integration instance and
// entity to sync, dispatch, or resolve delegates for is a per-request
// decision, not a daemon-wide one.
type coreRuntime struct {
	bus        *sensorbus.Bus
	store      store.Store
	registry   *integration.Registry
	sync       *sync.Engine
	control    *control.Dispatcher
	delegation *delegation.Resolver
}

func opsMux(probes *svchealth.ProbeManager, deepHealth *svchealth.DeepHealthChecker, monitors *monitor.Manager, reg *integration.Registry, met *metrics.Metrics, serviceName string) http.Handler {
	r := chi.NewRouter()
	r.Use(httpmw.Metrics(serviceName, met))
	r.Get("/healthz", probes.LivenessHandler())
	r.Get("/readyz", probes.ReadinessHandler())
	r.Get("/healthz/deep", svchealth.DeepHealthHandler(deepHealth, "hubd", "dev", false, nil))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/monitors", monitorsHandler(monitors))
	r.Get("/integrations", integrationsHandler(reg))
	return r
}

// monitorsHandler exposes the consolidated monitor health rollup, the
// core-only equivalent of the original status display manager.
func monitorsHandler(monitors *monitor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Overall  monitor.Status             `json:"overall_status"`
			Monitors map[string]monitor.Snapshot `json:"monitors"`
		}{
			Overall:  monitors.OverallStatus(),
			Monitors: monitors.Snapshot(),
		})
	}
}

// integrationsHandler lists registered gateway types and live instances, a
// thin read-only view over the integration registry for ops visibility.
func integrationsHandler(reg *integration.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instances := reg.Instances()
		names := make([]string, 0, len(instances))
		for _, inst := range instances {
			names = append(names, inst.Name())
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			GatewayTypes []integration.Metadata `json:"gateway_types"`
			Instances    []string               `json:"instances"`
		}{
			GatewayTypes: reg.GatewayTypes(),
			Instances:    names,
		})
	}
}

func resolveDSN(flagDSN string, cfg *hubconfig.HubConfig) string {
	if trimmed := strings.TrimSpace(flagDSN); trimmed != "" {
		return trimmed
	}
	if envDSN := strings.TrimSpace(os.Getenv("DATABASE_URL")); envDSN != "" {
		return envDSN
	}
	if cfg != nil {
		return strings.TrimSpace(cfg.DatabaseDSN)
	}
	return ""
}

func resolveAddr(flagAddr string, cfg *hubconfig.HubConfig) string {
	if trimmed := strings.TrimSpace(flagAddr); trimmed != "" {
		return trimmed
	}
	if cfg != nil && strings.TrimSpace(cfg.ListenAddr) != "" {
		return cfg.ListenAddr
	}
	return ":8080"
}

func openStore(ctx context.Context, dsn string, migrate bool, logger *hublog.Logger) (store.Store, func()) {
	if dsn == "" {
		logger.Infof("no database DSN configured, using in-memory store")
		return memstore.New(), func() {}
	}

	pg, err := postgres.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	if migrate {
		if err := pg.Migrate(); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
	}
	return pg, func() {}
}
