package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imamik/fleetstack/cmd/fleetstack/handlers"
)

// Outputs returns the outputs command.
func Outputs() *cobra.Command {
	var (
		configPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Print the identifiers of the materialized topology",
		Long: `Outputs reads the state journal and prints the realized identifiers:
the table ID, and per region the edge DNS name, ARN and hosted zone,
the fleet ARN and the network ID, plus the access node ID.

Regions that did not complete are listed as failed.

Example:
  fleetstack outputs
  fleetstack outputs --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case handlers.FormatText, handlers.FormatYAML, handlers.FormatJSON:
			default:
				return fmt.Errorf("unknown format %q (want text, yaml or json)", format)
			}
			return handlers.Outputs(cmd.Context(), configPath, format)
		},
	}

	configFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&format, "format", "o", handlers.FormatText, "Output format: text, yaml or json")

	return cmd
}
