package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/enrollment/internal/bootstrap"
	"github.com/yigit/enrollment/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default offerings",
		Long:  "Create the default offerings that do not exist yet. Existing offerings are left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(rootOpts.ConfigPath)
			if err != nil {
				return err
			}

			gateway, err := bootstrap.OpenGateway(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			deps := bootstrap.BuildDependencies(cfg, gateway, bootstrap.OpenCache(ctx, cfg, lgr), lgr)
			defer deps.Close()

			created, err := seed.CreateDefaultData(ctx, deps.OfferingService, lgr)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d offerings created\n", created)
			return nil
		},
	}
}
