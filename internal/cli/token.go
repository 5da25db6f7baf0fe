package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/bootstrap"
	"github.com/yigit/enrollment/internal/config"
)

// ValidRoles defines the roles a token can carry.
var ValidRoles = []models.RoleType{models.RoleStudent, models.RoleAdministrator}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "token <actor-id>",
		Short: "Mint an access token for development",
		Long: `Mint an access token signed with the configured JWT secret.

Identity is issued outside this service in production. This command
exists so the API can be exercised locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleType, err := parseRole(role)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}

			token, expiresIn, err := bootstrap.NewJWTService(cfg).GenerateToken(args[0], roleType)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "role=%s expires_in=%ds\n", roleType, expiresIn)
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", string(models.RoleStudent), "token role (STUDENT|ADMINISTRATOR)")

	return cmd
}

// parseRole checks if the role is one of the allowed values.
func parseRole(role string) (models.RoleType, error) {
	for _, r := range ValidRoles {
		if strings.EqualFold(string(r), role) {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid role %q: must be one of %v", role, ValidRoles)
}
