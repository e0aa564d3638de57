package main

import (
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/config"
)

type rootOptions struct {
	configPath string
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "jobboard-auth",
		Short:         "Credential verification and session tokens for the job board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML or JSON config file")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
	)

	return rootCmd
}

// bootstrap loads the configuration and builds the logger every command needs
func (o *rootOptions) bootstrap() (*config.Config, *auth.LogrusLogger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := auth.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}
