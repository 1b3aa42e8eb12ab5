package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratacms/strata/internal/cli/prompt"
	"github.com/stratacms/strata/pkg/config"
	"github.com/stratacms/strata/pkg/database"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample strata configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/strata/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  strata init

  # Choose the database and cache interactively
  strata init --interactive

  # Initialize with custom path
  strata init --config /etc/strata/config.yaml

  # Force overwrite existing config
  strata init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for database and cache settings")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.GetDefaultConfig()
	if initInteractive {
		if err := promptSettings(cfg); err != nil {
			if prompt.IsAborted(err) {
				return fmt.Errorf("initialization aborted")
			}
			return err
		}
	}

	if err := config.WriteConfig(configPath, cfg, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	_, _ = fmt.Fprintln(out, "  2. Create the schema with: strata migrate")
	_, _ = fmt.Fprintf(out, "  3. Or specify custom config: strata migrate --config %s\n", configPath)
	return nil
}

// promptSettings asks for the database backend, the cache provider and the
// audit retention.
func promptSettings(cfg *config.Config) error {
	dbType, err := prompt.Select("Database", []prompt.SelectOption{
		{Label: "SQLite", Value: string(database.DatabaseTypeSQLite), Description: "Single file, no server required"},
		{Label: "PostgreSQL", Value: string(database.DatabaseTypePostgres), Description: "Shared database for several servers"},
	})
	if err != nil {
		return err
	}
	cfg.Database.Type = database.DatabaseType(dbType)

	switch cfg.Database.Type {
	case database.DatabaseTypeSQLite:
		if cfg.Database.SQLite.Path, err = prompt.Input("SQLite path", cfg.Database.SQLite.Path); err != nil {
			return err
		}
	case database.DatabaseTypePostgres:
		pg := &cfg.Database.Postgres
		if pg.Host, err = prompt.Input("PostgreSQL host", "localhost"); err != nil {
			return err
		}
		if pg.Port, err = prompt.InputPort("PostgreSQL port", 5432); err != nil {
			return err
		}
		if pg.Database, err = prompt.InputRequired("Database name"); err != nil {
			return err
		}
		if pg.User, err = prompt.InputRequired("User"); err != nil {
			return err
		}
		if pg.Password, err = prompt.Password("Password"); err != nil {
			return err
		}
		cfg.Database.SQLite.Path = ""
		cfg.Database.ApplyDefaults()
	}

	provider, err := prompt.SelectString("Entity cache", []string{
		config.CacheProviderMemory,
		config.CacheProviderRedis,
		config.CacheProviderBadger,
		config.CacheProviderNone,
	})
	if err != nil {
		return err
	}
	cfg.Cache.Provider = provider
	if provider == config.CacheProviderRedis {
		if cfg.Cache.Redis.Addr, err = prompt.Input("Redis address", cfg.Cache.Redis.Addr); err != nil {
			return err
		}
	}

	if cfg.Retention.Audit, err = prompt.InputDuration("Audit log retention", cfg.Retention.Audit); err != nil {
		return err
	}

	return config.Validate(cfg)
}
