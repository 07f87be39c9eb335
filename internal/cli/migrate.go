package cli

import (
	"merchant-desk/internal/database"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func (a *App) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().String("dir", "", "migrations directory, overrides MIGRATIONS_DIR")
	viper.BindPFlag("MIGRATIONS_DIR", cmd.PersistentFlags().Lookup("dir"))

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := a.database(cmd.Context())
				if err != nil {
					return err
				}
				return database.RunMigrations(cmd.Context(), db, a.cfg.Server.MigrationsDir, a.log)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := a.database(cmd.Context())
				if err != nil {
					return err
				}
				return database.RollbackMigration(cmd.Context(), db, a.cfg.Server.MigrationsDir, a.log)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := a.database(cmd.Context())
				if err != nil {
					return err
				}
				return database.MigrationStatus(cmd.Context(), db, a.cfg.Server.MigrationsDir)
			},
		},
	)
	return cmd
}
