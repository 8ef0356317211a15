package main

import (
	"github.com/spf13/cobra"

	"github.com/embeddedforge/hoist/internal/release"
)

var (
	releaseDryRun  bool
	releaseVerbose bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build and collect a full release of every app and sample",
	Long: `Release builds every app and sample declared in hoist.yml for every
west board, hardware revision and build type, and collects the resulting
binaries into a versioned release tree with one zip per app build type and
one for all samples.`,
	Args: cobra.NoArgs,
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().BoolVar(&releaseDryRun, "dry-run", false, "show the jobs and create dummy artifacts without building")
	releaseCmd.Flags().BoolVar(&releaseVerbose, "verbose", false, "stream west build output instead of capturing it")
}

func runRelease(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	return release.Run(cmd.Context(), ws, release.Options{
		DryRun:  releaseDryRun,
		Verbose: releaseVerbose,
	})
}
