package main

import (
	"github.com/spf13/cobra"
)

const serviceName = "identity-service"

// NewRootCmd creates the root command for the identity service CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Identity service - authentication and password reset API",
		Long: `Identity service authenticates credentials, issues and verifies
JWT access/refresh tokens and runs the password-reset handshake.
Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewPurgeResetsCmd())

	return cmd
}
