package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-jobboard-auth/persistence"
)

// newMigrateCommand creates the migrate command
func newMigrateCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Database migration commands",
		Long:    `Apply or roll back the embedded users schema migrations.`,
	}

	cmd.AddCommand(
		newMigrateUpCommand(root),
		newMigrateDownCommand(root),
		newMigrateListCommand(root),
	)

	return cmd
}

func newMigrateUpCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Args:  cobra.NoArgs,
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.bootstrap()
			if err != nil {
				return err
			}

			db, err := persistence.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := persistence.Migrate(cmd.Context(), db, cfg.Database.Driver); err != nil {
				return err
			}

			logger.Info("migrations applied", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

func newMigrateDownCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Args:  cobra.NoArgs,
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.bootstrap()
			if err != nil {
				return err
			}

			db, err := persistence.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := persistence.Rollback(cmd.Context(), db, cfg.Database.Driver); err != nil {
				return err
			}

			logger.Info("migration rolled back", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

func newMigrateListCommand(root *rootOptions) *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "list",
		Args:  cobra.NoArgs,
		Short: "List the embedded migration files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if driver == "" {
				cfg, _, err := root.bootstrap()
				if err != nil {
					return err
				}
				driver = cfg.Database.Driver
			}

			files, err := persistence.Migrations(driver)
			if err != nil {
				return err
			}

			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "sqlite or postgres, defaults to database.driver")

	return cmd
}
