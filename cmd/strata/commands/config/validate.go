package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratacms/strata/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the strata configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  strata config validate

  # Validate specific config file
  strata config validate --config /etc/strata/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Database type:   %s\n", cfg.Database.Type)
	_, _ = fmt.Fprintf(out, "  Cache provider:  %s\n", cfg.Cache.Provider)
	_, _ = fmt.Fprintf(out, "  Metrics:         %t\n", cfg.Metrics.Enabled)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}

// configWarnings lists settings that load but are likely mistakes.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.Database.TraceSQL && cfg.Logging.Level != "DEBUG" {
		warnings = append(warnings, "database.trace_sql has no effect unless logging.level is DEBUG")
	}
	if cfg.Cache.Provider == config.CacheProviderBadger && cfg.Cache.Badger.InMemory {
		warnings = append(warnings, "in-memory badger cache is not shared between processes")
	}
	if cfg.Cache.Provider == config.CacheProviderNone {
		warnings = append(warnings, "entity cache disabled - every read goes to the database")
	}
	return warnings
}
