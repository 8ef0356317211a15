// Package buildtype computes the extra CMake arguments (CONF_FILE and
// OVERLAY_CONFIG defines) for a west build invocation, based on the project
// descriptor, the directory the build runs from and the state of an existing
// build folder.
package buildtype

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/embeddedforge/hoist/internal/config"
	"github.com/embeddedforge/hoist/internal/models"
)

// Diagnostics returned together with non-empty arguments. Empty arguments
// never carry a diagnostic.
const (
	DiagNoBuildFolder = "build folder not found, using build type settings"
	DiagOldSettings   = "old settings found in build folder, forcing CMake rebuild"
)

// Request carries everything Resolve needs. Cwd and ProjectDir must be
// absolute; SourceDir and BuildDir are interpreted relative to Cwd, matching
// the west build flags they come from.
type Request struct {
	Descriptor *models.Descriptor
	BuildType  string
	Board      string
	BuildDir   string // build folder, "build" when empty
	SourceDir  string // application source directory, Cwd when empty
	Cwd        string
	ProjectDir string
}

// Resolve computes the CMake arguments to append to a west build invocation.
//
// The returned slice is empty when plain west behavior applies or when the
// existing build folder was configured with exactly the same arguments. Each
// argument is unquoted; quoting happens once, at the boundary where the
// command line is rendered.
func Resolve(req Request) ([]string, string, error) {
	if req.Descriptor == nil {
		if req.BuildType != "" {
			return nil, "", fmt.Errorf(
				"--build-type was given, but there is no %s to resolve it against", config.DescriptorName)
		}
		return nil, "", nil
	}

	srcDir := filepath.Join(req.Cwd, req.SourceDir)

	scope, name := classifyScope(req.ProjectDir, srcDir)

	if scope == scopeNone {
		if req.BuildType != "" {
			return nil, "", fmt.Errorf(
				"--build-type can only be given inside an app or samples folder of the project")
		}
		return nil, "", nil
	}

	buildType := req.BuildType

	var app *models.AppConfig
	var prefix string

	switch scope {
	case scopeSamples:
		sample := req.Descriptor.Sample(name)
		if sample == nil || sample.InheritBuildType == nil {
			// Sample not listed, or listed without inheritance: plain west
			// behavior.
			return nil, "", nil
		}

		app = req.Descriptor.App(sample.InheritBuildType.App)
		if app == nil {
			return nil, "", fmt.Errorf(
				"sample %q inherits from non-existing app %q", name, sample.InheritBuildType.App)
		}
		buildType = sample.InheritBuildType.BuildType

		toRoot, err := filepath.Rel(srcDir, req.ProjectDir)
		if err != nil {
			return nil, "", fmt.Errorf("resolving path to project root: %w", err)
		}
		if len(req.Descriptor.Apps) == 1 {
			prefix = filepath.ToSlash(filepath.Join(toRoot, "app")) + "/"
		} else {
			prefix = filepath.ToSlash(filepath.Join(toRoot, "app", app.Name)) + "/"
		}

	case scopeApp:
		if len(req.Descriptor.Apps) == 0 {
			return nil, "", nil
		}
		if len(req.Descriptor.Apps) == 1 {
			app = &req.Descriptor.Apps[0]
		} else {
			app = req.Descriptor.App(name)
			if app == nil {
				return nil, "", fmt.Errorf(
					"directory %q does not match any app declared in %s", name, config.DescriptorName)
			}
		}
	}

	// "release" is a reserved alias for "common configuration only".
	if buildType == config.ReleaseBuildType {
		buildType = ""
	}

	var confFiles []string
	if buildType != "" {
		bt := app.BuildType(buildType)
		if bt == nil {
			return nil, "", fmt.Errorf(
				"build type %q does not exist for app %q", buildType, app.Name)
		}
		confFiles = bt.ConfFiles
	}

	required := requiredArgs(srcDir, prefix, req.Board, confFiles)

	buildDir := req.BuildDir
	if buildDir == "" {
		buildDir = "build"
	}
	cacheFile := filepath.Join(req.Cwd, buildDir, cacheFileName)

	previous, err := previousArgs(cacheFile)
	if os.IsNotExist(err) {
		return required, DiagNoBuildFolder, nil
	}
	if err != nil {
		return nil, "", err
	}

	if slices.Equal(required, previous) {
		return nil, "", nil
	}
	return required, DiagOldSettings, nil
}

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeApp
	scopeSamples
)

// classifyScope determines whether dir lies inside an "app" or a "samples"
// path segment of the project, and returns the directory basename used for
// descriptor lookups.
func classifyScope(projectDir, dir string) (scopeKind, string) {
	rel, err := filepath.Rel(projectDir, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return scopeNone, ""
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	name := filepath.Base(dir)

	if slices.Contains(segments, "samples") {
		return scopeSamples, name
	}
	if slices.Contains(segments, "app") {
		return scopeApp, name
	}
	return scopeNone, ""
}

// requiredArgs builds the CMake argument list for the selected configuration.
// prefix is the slash-terminated path from the source directory to the
// inherited app directory, empty when building the app itself.
func requiredArgs(srcDir, prefix, board string, confFiles []string) []string {
	args := []string{"-DCONF_FILE=" + prefix + "conf/common.conf"}

	var overlays []string

	if board != "" {
		// The user may give the board with a hardware revision suffix; config
		// fragments are revision-independent.
		board, _, _ = strings.Cut(board, "@")

		boardConf := filepath.Join(srcDir, filepath.FromSlash(prefix), "conf", board+".conf")
		if _, err := os.Stat(boardConf); err == nil {
			overlays = append(overlays, board+".conf")
		}
	}

	overlays = append(overlays, confFiles...)

	if len(overlays) > 0 {
		prefixed := make([]string, len(overlays))
		for i, o := range overlays {
			prefixed[i] = prefix + "conf/" + o
		}
		args = append(args, "-DOVERLAY_CONFIG="+strings.Join(prefixed, ";"))
	}

	return args
}
