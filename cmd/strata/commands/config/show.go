package config

import (
	"github.com/spf13/cobra"

	"github.com/stratacms/strata/internal/cli/output"
	"github.com/stratacms/strata/pkg/config"
)

const redacted = "********"

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective strata configuration with defaults applied.
Passwords are redacted.

Examples:
  # Show default config as YAML
  strata config show

  # Show as JSON
  strata config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	redact(cfg)
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}

func redact(cfg *config.Config) {
	if cfg.Database.Postgres.Password != "" {
		cfg.Database.Postgres.Password = redacted
	}
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = redacted
	}
}
