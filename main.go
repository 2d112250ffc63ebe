package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/lehigh-university-libraries/ttsmontage/cmd"
	"github.com/lehigh-university-libraries/ttsmontage/internal/pipeline"
)

const version = "0.1.0"

func main() {
	pipeline.UserAgent = "ttsmontage/" + version
	root := cmd.NewRootCmd()

	// fang adds completions, manpages and --version; the signal cancels the command context
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
