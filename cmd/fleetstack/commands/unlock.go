package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetstack/cmd/fleetstack/handlers"
)

// Unlock returns the unlock command.
func Unlock() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Release a run lease left behind by a killed run",
		Long: `Unlock removes the lease of the topology from the state backend.

A run holds the lease while it materializes or tears down the topology
and releases it when it ends, also when interrupted. A run that was
killed cannot, and every later run then fails with "already being
materialized". Unlock clears that lease; the next apply resumes from
the journal.

Example:
  fleetstack unlock -c fleetstack.yaml

WARNING: Only unlock when no other run is active. Two concurrent runs
over the same topology corrupt its journal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Unlock(cmd.Context(), configPath)
		},
	}

	configFlag(cmd, &configPath)

	return cmd
}
