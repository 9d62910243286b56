package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/imamik/fleetstack/internal/provisioning"
	"github.com/imamik/fleetstack/internal/topology"
)

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Outputs handles the outputs command. Outputs are derived from the state
// journal; nothing is called remotely.
func Outputs(ctx context.Context, configPath, format string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	topo, err := topology.Build(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.State)
	if err != nil {
		return fmt.Errorf("failed to open state backend: %w", err)
	}
	snap, err := store.Load(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to load state of %s: %w", cfg.Name, err)
	}

	out := provisioning.OutputsFromSnapshot(topo, snap)

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal outputs: %w", err)
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	case FormatYAML:
		data, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal outputs: %w", err)
		}
		_, err = stdout.Write(data)
		return err
	default:
		return newRenderer().Outputs(out)
	}
}
