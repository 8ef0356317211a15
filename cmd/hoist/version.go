package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/embeddedforge/hoist/internal/config"
	"github.com/embeddedforge/hoist/internal/gitver"
)

var versionTag string

var versionCmd = &cobra.Command{
	Use:   "version [path]...",
	Short: "Generate Zephyr VERSION files from the git version",
	Long: `Version writes a Zephyr VERSION file into each given directory. With
no paths on the command line the directories come from the version.paths key
of hoist.yml. The version is taken from git describe unless --tag is given.`,
	Args: cobra.ArbitraryArgs,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().StringVar(&versionTag, "tag", "", "version tag override, instead of git describe")
}

func runVersion(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	var semver gitver.ZephyrSemver
	if versionTag != "" {
		semver, err = gitver.FromParsedTag(gitver.FromTag(versionTag))
	} else {
		semver, err = gitver.Describe(cmd.Context(), ws.Runner, ws.ProjectDir)
	}
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		if ws.Descriptor == nil || ws.Descriptor.Version == nil || len(ws.Descriptor.Version.Paths) == 0 {
			return fmt.Errorf(
				"no paths given and no version.paths key in %s, nothing to write", config.DescriptorName)
		}
		for _, p := range ws.Descriptor.Version.Paths {
			if filepath.IsAbs(p) {
				paths = append(paths, p)
			} else {
				paths = append(paths, filepath.Join(ws.ProjectDir, p))
			}
		}
	}

	if semver.TweakClamped {
		ws.Log.Warn("commit count exceeds the VERSION file tweak limit, clamping", "tweak", 255)
	}

	for _, dir := range paths {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("version path %s does not exist", dir)
		}
		target := filepath.Join(dir, "VERSION")
		if err := os.WriteFile(target, []byte(semver.VersionFile()+"\n"), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		ws.Log.Info("wrote version file", "path", target, "version", semver.String())
	}

	return nil
}
