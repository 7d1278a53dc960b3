package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nilnode/nildb/internal/config"
	"github.com/nilnode/nildb/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the primary-namespace tables",
	Long: `Open the primary database and create its tables (builders, users,
queries, query_runs, config, collections) if they do not already exist.

Per-collection data tables are created on demand when a collection is
registered; migrate only touches the primary namespace.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	primary, data, err := openDatabases(cfg)
	if err != nil {
		return err
	}
	defer primary.Close()
	defer data.Close()

	entities := store.New(primary, data)
	if err := entities.EnsurePrimaryTables(context.Background()); err != nil {
		return fmt.Errorf("ensuring primary tables: %w", err)
	}

	log.Info().Msg("primary-namespace tables are up to date")
	fmt.Println("✓ migration complete")
	return nil
}
