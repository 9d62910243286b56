package handlers

import (
	"context"

	"github.com/imamik/fleetstack/internal/provisioning"
	"github.com/imamik/fleetstack/internal/topology"
)

// Plan builds the topology and prints its materialization order. It makes
// no remote calls.
func Plan(_ context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	topo, err := topology.Build(cfg)
	if err != nil {
		return err
	}

	return newRenderer().Plan(topo, provisioning.Warnings(topo))
}
