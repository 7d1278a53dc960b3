package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nildbd",
	Short: "A decentralized document and capability data service",
	Long: `nildbd runs a single node of a decentralized document and capability
data service:

  - SQLite-backed document storage, split into a primary namespace
    (builders, users, queries, runs) and a per-collection data namespace
  - Collections with owned or standard ACL models and JSON Schema
    validation
  - NUC bearer-token capabilities on every request, chained back to a
    configured trust anchor
  - Saved aggregation queries, runnable synchronously or in the background

Start a node:
  nildbd serve

Apply the primary-namespace schema:
  nildbd migrate`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./nildb.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// setupLogging configures zerolog based on verbosity.
func setupLogging() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Version returns the version string, also used as the node's build tag
// in system/about responses.
func Version() string {
	return fmt.Sprintf("nildbd %s", "0.1.0-dev")
}
