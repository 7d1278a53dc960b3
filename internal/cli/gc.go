package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nilnode/nildb/internal/config"
	"github.com/nilnode/nildb/internal/store"
)

var gcOlderThan time.Duration

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete query runs older than a retention window",
	Long: `Remove QueryRun records created before the retention window.

This is a supplemental maintenance routine: it never runs on its own and
has no automatic schedule. An operator invokes it explicitly, typically
from a periodic external scheduler (cron, a Kubernetes CronJob, ...).`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().DurationVar(&gcOlderThan, "older-than", 30*24*time.Hour, "delete query runs created before this long ago")
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) error {
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

	cutoff := time.Now().UTC().Add(-gcOlderThan)
	n, err := entities.DeleteRunsOlderThan(context.Background(), cutoff)
	if err != nil {
		return fmt.Errorf("deleting query runs: %w", err)
	}

	log.Info().Int("removed", n).Time("cutoff", cutoff).Msg("query run collection complete")
	fmt.Printf("✓ removed %d query run(s) created before %s\n", n, cutoff.Format(time.RFC3339))
	return nil
}
