package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/scribe/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures the chart database has all the required
tables and indexes.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	slog.Info("Starting database migration",
		"driver", appConfig.Database.Driver,
		"status_only", status)

	store, err := openStorage(ctx, appConfig, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	versioned, ok := store.(schemaVersioner)
	if !ok {
		return fmt.Errorf("storage driver %s does not report schema versions", appConfig.Database.Driver)
	}

	current, err := versioned.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (latest %d)\n", current, storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(cmd.OutOrStdout(), "Pending migrations: run 'scribe migrate'")
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Database migrations completed", "from", current, "to", storage.ExpectedSchemaVersion)
	return nil
}
