// Package workspace ties a command invocation to the project it runs in: the
// project root, the loaded descriptor, user settings, the logger and the
// runner for external tools.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/embeddedforge/hoist/internal/config"
	"github.com/embeddedforge/hoist/internal/models"
	"github.com/embeddedforge/hoist/internal/runner"
)

// Workspace is the per-invocation context handed to command implementations.
type Workspace struct {
	// Cwd is the directory the command was invoked from.
	Cwd string
	// ProjectDir is the closest ancestor of Cwd containing a project
	// descriptor, or Cwd itself when there is none.
	ProjectDir string
	// Descriptor is nil when the project has no descriptor file. Commands
	// that require one must check and fail with a helpful message.
	Descriptor *models.Descriptor
	Settings   config.Settings
	Log        *log.Logger
	Runner     runner.Runner
}

// Open builds the workspace for a command running in cwd. A missing
// descriptor is not an error: building without one falls back to plain west
// behavior.
func Open(cwd string, settings config.Settings) (*Workspace, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "hoist",
		Level:  parseLevel(settings.LogLevel),
	})

	projectDir, found := findProjectDir(cwd)

	var descriptor *models.Descriptor
	if found {
		var err error
		descriptor, err = config.LoadDescriptor(filepath.Join(projectDir, config.DescriptorName))
		if err != nil {
			return nil, err
		}
	}

	return &Workspace{
		Cwd:        cwd,
		ProjectDir: projectDir,
		Descriptor: descriptor,
		Settings:   settings,
		Log:        logger,
		Runner:     runner.Exec{},
	}, nil
}

// RequireDescriptor returns the descriptor or an error telling the user how
// to get one.
func (w *Workspace) RequireDescriptor() (*models.Descriptor, error) {
	if w.Descriptor == nil {
		return nil, fmt.Errorf(
			"this command needs a %s file at the project root, and none was found above %s",
			config.DescriptorName, w.Cwd)
	}
	return w.Descriptor, nil
}

// TwisterOut resolves the twister output directory against the project root.
func (w *Workspace) TwisterOut() string {
	return w.resolve(w.Settings.TwisterOut)
}

// PackDir resolves the packaging output directory against the project root.
func (w *Workspace) PackDir() string {
	return w.resolve(w.Settings.PackDir)
}

// ReleaseDir resolves the release output directory against the project root.
func (w *Workspace) ReleaseDir() string {
	return w.resolve(w.Settings.ReleaseDir)
}

func (w *Workspace) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(w.ProjectDir, dir)
}

// findProjectDir walks up from start looking for the project descriptor.
func findProjectDir(start string) (string, bool) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, config.DescriptorName)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, false
		}
		dir = parent
	}
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
