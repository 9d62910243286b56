package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetstack/cmd/fleetstack/handlers"
)

// Apply returns the apply command.
//
// Apply materializes every entity of the topology in dependency order.
// Independent entities in different regions proceed concurrently.
func Apply() *cobra.Command {
	var (
		configPath  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Materialize the topology",
		Long: `Apply materializes the replicated table, one network, fleet and edge
per target region, and the access node.

Every step is recorded in the state journal. Running apply again is a
no-op for entities that are already complete; after a failure or an
interruption it resumes with the entities that are missing.

When some entities fail, apply still materializes everything that does
not depend on them, prints the outputs of the regions that completed
and exits non-zero.

Example:
  fleetstack apply -c fleetstack.yaml
  fleetstack apply --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath, metricsAddr)
		},
	}

	configFlag(cmd, &configPath)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while applying")

	return cmd
}
