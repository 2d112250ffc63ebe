package cmd

import (
	"github.com/lehigh-university-libraries/ttsmontage/internal/config"
	"github.com/lehigh-university-libraries/ttsmontage/internal/pipeline"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the stages enabled by SOURCE_IMAGES and GENERATE_MONTAGE",
		Example: `  # Fetch and montage Duskmourn using settings from .env
  ttsmontage run

  # Same, configured entirely by flags
  ttsmontage run --set-code dsk --output-root ./art --source-images --generate-montage`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd)
		},
	}
}

// execute loads the configuration, runs the pipeline and prints the summary
func execute(cmd *cobra.Command, adjust ...func(*config.Config)) error {
	cfg, err := config.Load(cmd.Flags(), adjust...)
	if err != nil {
		return err
	}

	rep, err := pipeline.Run(cmd.Context(), cfg)
	if rep != nil {
		rep.Print(cmd.OutOrStdout())
	}
	return err
}
