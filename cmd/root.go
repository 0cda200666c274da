package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/excellere/excellere/internal/config"
	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "excellere",
	Short:        "AI literacy course server",
	Long:         "Excellere serves the adaptive teach-back course: learners explain concepts back, an LLM analyses the explanation and validators review the final insight reports.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Database DSN (overrides EXCELLERE_DB)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(validatorCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config and the environment, then applies --db
// (highest priority).
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}

// openStore opens and migrates the configured database.
func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// cliStore is openStore for the inspection commands, which log nothing.
func cliStore(cmd *cobra.Command) (*store.Store, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	st, err := openStore(cmd.Context(), cfg, logger.Nop())
	if err != nil {
		return nil, config.Config{}, err
	}
	return st, cfg, nil
}
