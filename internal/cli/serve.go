package cli

import (
	"github.com/spf13/cobra"

	"github.com/yigit/enrollment/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var withSeed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

Pending migrations are applied on startup. With --seed the default
offerings are created when missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.NewServer(cmd.Context(), server.Options{
				ConfigPath: rootOpts.ConfigPath,
				Seed:       withSeed,
			})
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}

	cmd.Flags().BoolVar(&withSeed, "seed", false, "create the default offerings on startup")

	return cmd
}
