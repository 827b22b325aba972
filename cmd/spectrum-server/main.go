package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/spectrum-deconfliction/core"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/config"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/logging"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/observability"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/server"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/service"
	"github.com/signalsfoundry/spectrum-deconfliction/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file; defaults apply when empty")
	addr := flag.String("addr", "", "Override the API listen address from the config")
	policyPath := flag.String("policy", "", "Override the policy file from the config")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load config", logging.String("path", *configPath), logging.Err(err))
		os.Exit(1)
	}
	if *policyPath != "" {
		cfg.Policy.File = *policyPath
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.MetricsAddr(), collector, log)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	policy, err := loadPolicy(cfg.Policy.File)
	if err != nil {
		log.Error(ctx, "failed to load policy", logging.String("path", cfg.Policy.File), logging.Err(err))
		os.Exit(1)
	}

	allocations := store.NewAllocationStore()
	svc := service.New(service.Options{
		Logger:      log,
		Policy:      policy,
		Allocations: allocations,
		Requests:    store.NewRequestStore(),
		Emitters:    store.NewEmitterStore(),
		Metrics:     collector,
	})

	handler, err := server.New(server.Config{Service: svc, Metrics: collector})
	if err != nil {
		log.Error(ctx, "failed to build API handler", logging.Err(err))
		os.Exit(1)
	}

	listenAddr := cfg.Addr()
	if *addr != "" {
		listenAddr = *addr
	}
	apiSrv := &http.Server{
		Addr:    listenAddr,
		Handler: handler,
	}

	log.Info(ctx, "starting deconfliction API server", logging.String("addr", listenAddr))
	go func() {
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "API server exited", logging.Err(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go sweepExpired(stopCtx, allocations, collector, cfg.Store.ExpirySweepInterval, log)
	<-stopCtx.Done()

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func loadPolicy(path string) (*core.PolicyEngine, error) {
	if path == "" {
		return core.DefaultPolicy(), nil
	}
	return core.LoadPolicy(path)
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// sweepExpired drops allocations whose window has passed and keeps the
// active-allocation gauge current.
func sweepExpired(ctx context.Context, allocations *store.AllocationStore, collector *observability.Collector, interval time.Duration, log logging.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := allocations.ClearExpired(now.UTC())
			collector.SetActiveAllocations(allocations.Len())
			if removed > 0 {
				log.Info(ctx, "cleared expired allocations", logging.Int("removed", removed))
			}
		}
	}
}
