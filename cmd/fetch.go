package cmd

import (
	"github.com/lehigh-university-libraries/ttsmontage/internal/config"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the card art of a set, grouped by rarity",
		Long: `Query the catalog for every booster card of the set, one rarity tier at a
time, and download each card's large image to OUTPUT_ROOT_DIR/<set>/<rarity>/.

Tiers the catalog has no data for are skipped. A cards.parquet manifest of
every card and its download outcome is written next to the art.`,
		Example: `  ttsmontage fetch --set-code dsk --output-root ./art --download-workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, func(c *config.Config) {
				c.SourceImages = true
				c.GenerateMontage = false
			})
		},
	}
}
