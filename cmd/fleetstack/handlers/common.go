// Package handlers executes the fleetstack CLI commands.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/materializer/memory"
	"github.com/imamik/fleetstack/internal/provisioning"
	"github.com/imamik/fleetstack/internal/state"
	"github.com/imamik/fleetstack/internal/ui/tui"
)

// Factory function variables - can be replaced in tests.
var (
	// loadConfigFile loads, defaults and validates a configuration file.
	loadConfigFile = config.LoadFile

	// findConfigFile locates fleetstack.yaml when no path is given.
	findConfigFile = config.FindConfigFile

	// newProvisioningContext creates a new provisioning context.
	newProvisioningContext = provisioning.NewContext

	// openStore opens the state journal backend.
	openStore = state.Open

	// newMaterializer creates the materializer selected by the configuration.
	newMaterializer = func(cfg *config.Config, metrics *materializer.Metrics) (materializer.Materializer, error) {
		switch cfg.Materializer {
		case config.MaterializerMemory, "":
			var opts []memory.Option
			if cfg.Account != "" {
				opts = append(opts, memory.WithAccount(cfg.Account))
			}
			return materializer.Instrument(memory.New(opts...), metrics), nil
		default:
			return nil, config.Errorf("materializer", "unknown materializer %q", cfg.Materializer)
		}
	}

	// isInteractiveTTY reports whether stdout is a terminal.
	isInteractiveTTY = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// verbosity is the logr V-level enabled on the CLI logger.
var verbosity int

// SetVerbosity sets the log verbosity of subsequent commands.
func SetVerbosity(v int) {
	verbosity = v
}

// loadConfig loads configPath, or the nearest fleetstack.yaml when empty.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w", err)
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger returns the CLI logger writing to stderr.
func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

// newRenderer styles output only when stdout is a terminal.
func newRenderer() *tui.Renderer {
	return tui.NewRenderer(stdout, isInteractiveTTY())
}

// logLockHint points at unlock when err is a held lease.
func logLockHint(err error) {
	if state.IsLocked(err) {
		log.Printf("If no other run is active, release the lease with: fleetstack unlock")
	}
}

// setup opens the store and materializer and returns a provisioning
// context over them.
func setup(ctx context.Context, cfg *config.Config, metrics *provisioning.Metrics) (*provisioning.Context, error) {
	store, err := openStore(ctx, cfg.State)
	if err != nil {
		return nil, fmt.Errorf("failed to open state backend: %w", err)
	}

	var callMetrics *materializer.Metrics
	if metrics != nil {
		callMetrics = metrics.Materializer
	}
	m, err := newMaterializer(cfg, callMetrics)
	if err != nil {
		return nil, err
	}

	pCtx := newProvisioningContext(ctx, cfg, m, store, provisioning.NewLogObserver(newLogger()))
	pCtx.Metrics = metrics
	return pCtx, nil
}
