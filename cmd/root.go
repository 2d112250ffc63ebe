package cmd

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/ttsmontage/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ttsmontage",
		Short: "Fetch trading card art and tile it into montage sheets",
		Long: `ttsmontage downloads the booster card art of a set from a Scryfall-compatible
catalog, grouped by rarity, and packs collections of card images into
fixed-grid JPEG sheets suitable for tabletop deck import.

Every setting can come from flags, environment variables or a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return setupLogging(cmd, verbose)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging (same as --log-level debug)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newMontageCmd())
	cmd.AddCommand(newInspectCmd())

	return cmd
}

// setupLogging installs charmbracelet/log as the slog handler. --verbose
// wins over --log-level and LOG_LEVEL.
func setupLogging(cmd *cobra.Command, verbose bool) error {
	name, err := config.LogLevel(cmd.Flags())
	if err != nil {
		return err
	}
	if verbose {
		name = "debug"
	}

	level, err := log.ParseLevel(name)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(logger))
	return nil
}
