package cmd

import (
	"github.com/lehigh-university-libraries/ttsmontage/internal/config"
	"github.com/spf13/cobra"
)

func newMontageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "montage",
		Short: "Build montage sheets from images already on disk",
		Long: `Pack images into rows x columns JPEG sheets.

With --montage-input, the images of that single folder are packed into
--montage-output under the set code. Otherwise every rarity folder under
OUTPUT_ROOT_DIR/<set> becomes its own series of <set>_<rarity> sheets.`,
		Example: `  # Per-rarity sheets from a previous fetch
  ttsmontage montage --set-code dsk --output-root ./art

  # One folder, 10x7 grid, no reserved cell
  ttsmontage montage --set-code tokens --montage-input ./tokens --montage-output ./sheets \
    --rows 10 --columns 7 --reserve-blank-cell=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, func(c *config.Config) {
				c.SourceImages = false
				c.GenerateMontage = true
			})
		},
	}
}
