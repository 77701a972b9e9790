package app

import (
	"github.com/spf13/cobra"

	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/daemon"
	"github.com/idsync/idsync/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the idsync web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			var err error

			if cfg, err = config.ReadConfig(configPath); err != nil {
				return err //nolint: wrapcheck
			}

			if devMode {
				cfg.DevMode = true
			}

			return logger.Init(cfg.Log) //nolint: wrapcheck
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			d, err := daemon.New(&cfg)
			if err != nil {
				return err //nolint: wrapcheck
			}

			return d.Start() //nolint: wrapcheck
		},
	}
)
