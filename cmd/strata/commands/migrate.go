package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratacms/strata/internal/cli/output"
	"github.com/stratacms/strata/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Create or update the strata schema in the configured database
(SQLite or PostgreSQL). Run it after installing or upgrading strata.

Examples:
  # Run migrations with default config
  strata migrate

  # Run migrations with custom config
  strata migrate --config /etc/strata/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, rt, err := openRuntime(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = rt.Close() }()

	logger.Info("Database migrated", "type", cfg.Database.Type)

	// Verify the schema by reading through a scope.
	s, err := rt.Scopes.CreateScope(ctx)
	if err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}
	defer func() { _ = s.Close() }()

	languages, err := rt.Repositories.Languages.Count(s, nil)
	if err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), output.FormatTable, false)
	printer.Success(fmt.Sprintf("Migrations completed successfully (database type: %s, languages: %d)",
		cfg.Database.Type, languages))
	return nil
}
