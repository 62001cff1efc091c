package cli

import (
	"github.com/spf13/cobra"

	"github.com/PabloGalante/weekendship/internal/config"
)

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}

// NewRootCmd creates the top-level "weekendship-api" command. Without a
// subcommand it runs the HTTP server.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "weekendship-api",
		Short:         "Weekend project planner API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $WEEKENDSHIP_CONFIG)")

	root.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
	)

	return root
}
