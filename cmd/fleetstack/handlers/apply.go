package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imamik/fleetstack/internal/provisioning"
)

// Provisioner interface for testing - matches provisioning.Phase.
type Provisioner interface {
	Name() string
	Provision(ctx *provisioning.Context) error
}

// newApplyPhases returns the phases of an apply run.
var newApplyPhases = func() []provisioning.Phase {
	return []provisioning.Phase{
		provisioning.NewValidationPhase(),
		provisioning.NewAssembler(),
	}
}

// Apply handles the apply command.
//
// It validates the configuration, materializes the topology and prints
// the outputs. A partial failure prints the outputs of the completed
// regions and the entities left behind, then returns the error.
func Apply(ctx context.Context, configPath, metricsAddr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := provisioning.NewMetrics(reg)

	if metricsAddr != "" {
		stop, err := serveMetrics(metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	pCtx, err := setup(ctx, cfg, metrics)
	if err != nil {
		return err
	}

	log.Printf("Applying topology %s (%d regions, access in %s)", cfg.Name, len(cfg.Regions), cfg.AccessRegion)

	runErr := provisioning.RunPhases(pCtx, newApplyPhases())

	r := newRenderer()
	if out := pCtx.State.Outputs; out != nil {
		if err := r.Outputs(out); err != nil {
			return err
		}
	}
	if runErr != nil {
		if err := r.Failure(runErr); err != nil {
			return err
		}
		logLockHint(runErr)
		return fmt.Errorf("apply failed: %w", runErr)
	}

	log.Printf("Topology %s applied successfully", cfg.Name)
	return nil
}

// serveMetrics serves reg on addr until the returned stop function is
// called.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
	log.Printf("Serving metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
