package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/ttsmontage/internal/manifest"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var manifestPath string
	var limit int
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the cards.parquet manifest written by fetch",
		Example: `  # Cards whose art could not be downloaded
  ttsmontage inspect --file ./art/dsk/cards.parquet --missing

  # First 20 rows
  ttsmontage inspect --file ./art/dsk/cards.parquet --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := manifest.Read(manifestPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d cards from %s\n", len(rows), manifestPath)
			fmt.Fprintln(out, strings.Repeat("=", 80))

			shown := 0
			for _, row := range rows {
				if cmd.Context().Err() != nil {
					return nil
				}
				if missingOnly && !row.IsMissing() {
					continue
				}
				if limit > 0 && shown >= limit {
					break
				}
				shown++

				fmt.Fprintf(out, "%-8s %-9s %s\n", row.Rarity, row.Outcome, row.Name)
				if row.IsMissing() {
					fmt.Fprintf(out, "         url: %s", row.ImageURL)
					if row.Status != 0 {
						fmt.Fprintf(out, " (status %d)", row.Status)
					}
					fmt.Fprintln(out)
					if row.Error != "" {
						fmt.Fprintf(out, "         error: %s\n", row.Error)
					}
				} else {
					fmt.Fprintf(out, "         %s (%d bytes)\n", filepath.Base(row.Path), row.Bytes)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "file", "", "Path to a cards.parquet manifest (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of rows to print (0 for all)")
	cmd.Flags().BoolVar(&missingOnly, "missing", false, "Only print cards that were not downloaded")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}
