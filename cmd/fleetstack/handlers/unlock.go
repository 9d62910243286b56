package handlers

import (
	"context"
	"fmt"
	"time"
)

// Unlock handles the unlock command. It removes the topology lease
// whoever holds it.
func Unlock(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.State)
	if err != nil {
		return fmt.Errorf("failed to open state backend: %w", err)
	}

	holder, held, err := store.Unlock(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to unlock %s: %w", cfg.Name, err)
	}
	if !held {
		_, err = fmt.Fprintf(stdout, "Topology %s is not locked\n", cfg.Name)
		return err
	}

	owner := holder.Owner
	if owner == "" {
		owner = "an unknown run"
	}
	_, err = fmt.Fprintf(stdout, "Released lease of %s held by %s since %s\n",
		cfg.Name, owner, holder.AcquiredAt.Format(time.RFC3339))
	return err
}
