package main

import (
	"github.com/spf13/cobra"

	"github.com/embeddedforge/hoist/internal/buildtype"
)

var (
	buildBoard     string
	buildType      string
	buildDir       string
	buildSourceDir string
)

var buildCmd = &cobra.Command{
	Use:   "build [-- <extra cmake args>...]",
	Short: "Build firmware with west, applying build type configuration",
	Long: `Build runs west build, extended with the extra CMake arguments the
selected build type requires. Inside an app or samples folder of a project
with a hoist.yml descriptor, the CONF_FILE and OVERLAY_CONFIG defines for
the build type are appended after any extra arguments given on the command
line. Outside a project, build behaves exactly like west build.`,
	Args: cobra.ArbitraryArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildBoard, "board", "b", "", "west board to build for")
	buildCmd.Flags().StringVar(&buildType, "build-type", "", "build type from hoist.yml")
	buildCmd.Flags().StringVarP(&buildDir, "build-dir", "d", "", "build directory (default: build)")
	buildCmd.Flags().StringVarP(&buildSourceDir, "source-dir", "s", "", "application source directory (default: current directory)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	resolved, diag, err := buildtype.Resolve(buildtype.Request{
		Descriptor: ws.Descriptor,
		BuildType:  buildType,
		Board:      buildBoard,
		BuildDir:   buildDir,
		SourceDir:  buildSourceDir,
		Cwd:        ws.Cwd,
		ProjectDir: ws.ProjectDir,
	})
	if err != nil {
		return err
	}
	if diag != "" {
		ws.Log.Info(diag)
	}

	westArgs := []string{"build"}
	if buildBoard != "" {
		westArgs = append(westArgs, "-b", buildBoard)
	}
	if buildDir != "" {
		westArgs = append(westArgs, "-d", buildDir)
	}
	if buildSourceDir != "" {
		westArgs = append(westArgs, buildSourceDir)
	}
	if len(args) > 0 || len(resolved) > 0 {
		westArgs = append(westArgs, "--")
		westArgs = append(westArgs, args...)
		westArgs = append(westArgs, resolved...)
	}

	return ws.Runner.Run(cmd.Context(), ws.Cwd, "west", westArgs...)
}
