package main

import (
	"github.com/spf13/cobra"

	"github.com/embeddedforge/hoist/internal/pack"
)

var (
	packTwisterOut string
	packPath       string
	packTag        string
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Package twister build output into versioned flash bundles",
	Long: `Pack collects the artifacts declared in the pack section of hoist.yml
from a twister output directory, renames them with the release version,
generates nrfutil flashing bundles where configured, and zips everything
into one archive per build configuration.`,
	Args: cobra.NoArgs,
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVar(&packTwisterOut, "twister-out", "", "twister output directory (default from settings: twister-out)")
	packCmd.Flags().StringVar(&packPath, "pack-path", "", "output directory, recreated from scratch (default from settings: package)")
	packCmd.Flags().StringVar(&packTag, "tag", "", "version tag override, instead of git describe")
}

func runPack(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	opts := pack.Options{
		TwisterOut: packTwisterOut,
		PackDir:    packPath,
		Tag:        packTag,
	}
	if opts.TwisterOut == "" {
		opts.TwisterOut = ws.TwisterOut()
	}
	if opts.PackDir == "" {
		opts.PackDir = ws.PackDir()
	}

	return pack.Run(cmd.Context(), ws, opts)
}
