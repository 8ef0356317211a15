package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/embeddedforge/hoist/internal/config"
	"github.com/embeddedforge/hoist/internal/workspace"
)

// version is set via -ldflags at release time.
var version = "dev"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "hoist",
	Short: "A build, pack and release meta-tool for Zephyr firmware projects",
	Long: `hoist wraps the west build tool for Zephyr-based firmware projects.

It reads a hoist.yml descriptor at the project root and uses it to apply
named build type configurations to west builds, to package twister build
output into versioned flash bundles, and to build and collect full releases
of every app and sample in the project.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(versionCmd)
}

func execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// openWorkspace loads the user settings and ties the invocation to the
// surrounding project.
func openWorkspace() (*workspace.Workspace, error) {
	path, err := config.SettingsPath()
	if err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	return workspace.Open(cwd, settings)
}
