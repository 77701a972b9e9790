// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/idsync/idsync/internal/config"
)

var (
	configPath string // Path to the configuration directory
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "idsync",
		Short: "idsync reconciles identities and groups between Keycloak and the local store",
		Long: `idsync keeps the local user store in sync with the principals of a Keycloak realm.
It serves sign-in, registration, account and group management APIs and
reconciles every authenticated principal into the local store.`,
		Args: cobra.OnlyValidArgs,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Path to the configuration directory")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
