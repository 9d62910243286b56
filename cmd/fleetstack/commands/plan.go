package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetstack/cmd/fleetstack/handlers"
)

// Plan returns the plan command.
func Plan() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Validate the configuration and print the materialization order",
		Long: `Plan builds the topology described by the configuration and prints
every entity in the order apply would materialize it, together with its
dependencies and any warnings.

Plan makes no remote calls and does not touch the state journal.

Example:
  fleetstack plan -c fleetstack.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), configPath)
		},
	}

	configFlag(cmd, &configPath)

	return cmd
}
