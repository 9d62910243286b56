package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetstack/cmd/fleetstack/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var (
		configPath string
		region     string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Remove the topology or one region of it",
		Long: `Destroy removes every entity recorded in the state journal, dependents
before their dependencies: edges, fleets, templates, security groups,
identities and networks, then the replicated table.

With --region only the sub-topology of that region is removed. The
replicated table spans every region and is only removed with the
whole topology.

Example:
  fleetstack destroy -c fleetstack.yaml
  fleetstack destroy --region us-west-2

WARNING: This operation is irreversible. All table data will be lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath, region)
		},
	}

	configFlag(cmd, &configPath)
	cmd.Flags().StringVar(&region, "region", "", "Only remove the entities of this region")

	return cmd
}
