package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/fleetstack/internal/provisioning"
)

// newTeardownPhase creates the teardown phase - can be replaced in tests.
var newTeardownPhase = func(region string) Provisioner {
	return provisioning.NewTeardownPhase(region)
}

// Destroy handles the destroy command.
//
// It removes every recorded entity of the topology, or of one region when
// region is set, dependents first.
func Destroy(ctx context.Context, configPath, region string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	pCtx, err := setup(ctx, cfg, nil)
	if err != nil {
		return err
	}

	if region != "" {
		log.Printf("Destroying region %s of topology %s", region, cfg.Name)
	} else {
		log.Printf("Destroying topology %s", cfg.Name)
	}

	if err := provisioning.RunPhases(pCtx, []provisioning.Phase{
		provisioning.NewValidationPhase(),
		newTeardownPhase(region),
	}); err != nil {
		if rerr := newRenderer().Failure(err); rerr != nil {
			return rerr
		}
		logLockHint(err)
		return fmt.Errorf("destroy failed: %w", err)
	}

	log.Printf("Topology %s destroyed successfully", cfg.Name)
	return nil
}
