// Command vchain crawls value-chain reports outward from seed companies and
// keeps the resulting supplier graph in an edge store.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/config"
)

// Build-time variables set via ldflags.
var (
	commit    = ""
	buildDate = ""
)

var (
	cfg          *config.Config
	log          *logrus.Logger
	flagFmt      string
	flagLogLevel string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("vchain version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}
	return fmt.Sprintf("vchain version %s", config.Version)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "vchain",
		Short:   "vchain: supply-chain frontier crawler",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			if flagLogLevel != "" {
				if _, err := logrus.ParseLevel(flagLogLevel); err != nil {
					return fmt.Errorf("--log-level: %w", err)
				}
				loaded.LogLevel = flagLogLevel
			}
			cfg = loaded
			log = newLogger(cfg, os.Stderr)
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (default LOG_LEVEL)")

	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newFrontierCmd())
	rootCmd.AddCommand(newBadCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
