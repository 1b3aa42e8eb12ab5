package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/stratacms/strata/internal/cli/output"
	"github.com/stratacms/strata/internal/cli/prompt"
	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/config"
	"github.com/stratacms/strata/pkg/repository"
	"github.com/stratacms/strata/pkg/scope"
)

var (
	cleanupForce        bool
	cleanupStaleServers time.Duration
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune old log rows",
	Long: `Delete cache instructions, audit entries and long-running operations
older than the retention configured in the retention section.

Examples:
  # Prune with confirmation
  strata cleanup

  # Prune without asking, also deactivating servers silent for 10 minutes
  strata cleanup --force --stale-servers 10m`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupForce, "force", "f", false, "Skip confirmation prompt")
	cleanupCmd.Flags().DurationVar(&cleanupStaleServers, "stale-servers", 0, "Deactivate servers not seen within this duration (0 disables)")
}

// cleanupResult counts the rows removed per table.
type cleanupResult struct {
	CacheInstructions     int64
	AuditEntries          int64
	LongRunningOperations int64
	StaleServers          int64
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	confirmed, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Delete log rows older than the configured retention (audit %s)?", cfg.Retention.Audit), cleanupForce)
	if err != nil {
		if prompt.IsAborted(err) {
			return fmt.Errorf("cleanup aborted")
		}
		return err
	}
	if !confirmed {
		output.NewPrinter(cmd.OutOrStdout(), output.FormatTable, false).Warning("Cleanup cancelled.")
		return nil
	}

	s, err := rt.Scopes.CreateScope(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	res, err := cleanup(s, rt.Repositories, cfg.Retention, cleanupStaleServers, time.Now())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	if err := s.Complete(); err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	logger.Info("Cleanup completed",
		"cache_instructions", res.CacheInstructions,
		"audit", res.AuditEntries,
		"operations", res.LongRunningOperations)

	return output.SimpleTable(cmd.OutOrStdout(), [][2]string{
		{"Cache instructions", strconv.FormatInt(res.CacheInstructions, 10)},
		{"Audit entries", strconv.FormatInt(res.AuditEntries, 10)},
		{"Long-running operations", strconv.FormatInt(res.LongRunningOperations, 10)},
		{"Deactivated servers", strconv.FormatInt(res.StaleServers, 10)},
	})
}

// cleanup prunes every log table inside s.
func cleanup(s *scope.Scope, repos *repository.Repositories, retention config.RetentionConfig, staleServers time.Duration, at time.Time) (*cleanupResult, error) {
	var res cleanupResult
	var err error

	if res.CacheInstructions, err = repos.CacheInstructions.DeleteOlderThan(s, at.Add(-retention.CacheInstructions)); err != nil {
		return nil, err
	}
	if res.AuditEntries, err = repos.Audit.CleanLogs(s, retention.Audit); err != nil {
		return nil, err
	}
	if res.LongRunningOperations, err = repos.LongRunningOperations.CleanOperations(s, at.Add(-retention.LongRunningOperations)); err != nil {
		return nil, err
	}
	if staleServers > 0 {
		if res.StaleServers, err = repos.ServerRegistrations.DeactivateStaleServers(s, staleServers); err != nil {
			return nil, err
		}
	}
	return &res, nil
}
