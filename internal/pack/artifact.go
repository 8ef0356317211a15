package pack

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/embeddedforge/hoist/internal/twister"
)

// appDirPlaceholder in a declared artifact name stands for the build unit's
// own application build directory.
const appDirPlaceholder = "$APP_DIR/"

// extraDirName is the folder under the pack output that receives extra
// artifacts.
const extraDirName = "extra"

// Artifact is a single file placed into the pack output, either copied from
// a build directory or generated (batch files and scripts carry Content
// instead of a source path).
type Artifact struct {
	// Src is the file to copy. Empty for generated artifacts.
	Src string
	// Dst is the destination inside the pack output.
	Dst string
	// Content is written to Dst when Src is empty.
	Content []byte

	// The remaining fields serve the pack diagnostics.

	// Suite the artifact belongs to. Zero value for extras and generated
	// artifacts.
	Suite twister.Suite
	// RawName as declared in the descriptor.
	RawName string
	// Name after placeholder substitution, relative to the unit's build
	// directory.
	Name string
	// RenamedName after the renaming schema was applied.
	RenamedName string
}

// BuildArtifacts creates the artifacts for one build unit from its resolved
// pattern list. appBuildDir is the unit's application build directory,
// relative to the unit's build output directory.
func BuildArtifacts(suite twister.Suite, patterns []string, appBuildDir, twisterOut, packDir, version string) []Artifact {
	srcDir := filepath.Join(twisterOut, suite.OutPath)
	dstDir := filepath.Join(packDir, suite.Name, suite.Board)

	replacement := ""
	if appBuildDir != "." {
		replacement = appBuildDir + "/"
	}

	artifacts := make([]Artifact, 0, len(patterns))
	for _, raw := range patterns {
		name := strings.ReplaceAll(raw, appDirPlaceholder, replacement)
		renamed := renameArtifact(name, suite.Name, appBuildDir, version)

		src := filepath.Join(srcDir, filepath.FromSlash(name))
		if filepath.IsAbs(filepath.FromSlash(name)) {
			src = filepath.FromSlash(name)
		}

		artifacts = append(artifacts, Artifact{
			Src:         src,
			Dst:         filepath.Join(dstDir, renamed),
			Suite:       suite,
			RawName:     raw,
			Name:        name,
			RenamedName: renamed,
		})
	}
	return artifacts
}

// ExtraArtifact creates the artifact for a user-declared extra file. The
// directory component of the declared path is discarded; only the version
// token is inserted before the extension.
func ExtraArtifact(declared, packDir, version string) Artifact {
	file := path.Base(declared)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	renamed := base + "-" + version + ext

	return Artifact{
		Src:         filepath.FromSlash(declared),
		Dst:         filepath.Join(packDir, extraDirName, renamed),
		RawName:     declared,
		Name:        declared,
		RenamedName: renamed,
	}
}

// renameArtifact applies the renaming schema
//
//	<unit>-[dirs-]<filename>-<version><ext>
//
// The dirs tag is dropped for artifacts in the unit's default output
// locations: the build directory root and the default application's zephyr
// directory. An artifact in the zephyr directory of a non-default
// application keeps just that application's name as the tag. Everything else
// keeps its full directory path with slashes turned into dots.
func renameArtifact(name, unitName, appBuildDir, version string) string {
	dir, file := path.Split(name)
	dir = strings.TrimSuffix(dir, "/")
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)

	if dir == path.Join(appBuildDir, "zephyr") {
		dir = ""
	}
	if path.Base(dir) == "zephyr" {
		dir = strings.TrimSuffix(dir, "zephyr")
	}

	dir = strings.ReplaceAll(dir, "//", "/")
	dir = strings.ReplaceAll(dir, "/", ".")
	dir = strings.Trim(dir, ".")
	if dir != "" {
		dir += "-"
	}

	return unitName + "-" + dir + base + "-" + version + ext
}

// Exists reports whether the artifact's source file is on disk. Generated
// artifacts always exist.
func (a Artifact) Exists() bool {
	if a.Src == "" {
		return true
	}
	_, err := os.Stat(a.Src)
	return err == nil
}

// Place copies or writes the artifact to its destination, creating parent
// directories as needed.
func (a Artifact) Place() error {
	if err := os.MkdirAll(filepath.Dir(a.Dst), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(a.Dst), err)
	}

	if a.Src == "" {
		if err := os.WriteFile(a.Dst, a.Content, a.mode()); err != nil {
			return fmt.Errorf("writing %s: %w", a.Dst, err)
		}
		return nil
	}

	src, err := os.Open(a.Src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", a.Src, err)
	}
	defer src.Close()

	dst, err := os.Create(a.Dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", a.Dst, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s to %s: %w", a.Src, a.Dst, err)
	}
	return nil
}

func (a Artifact) mode() os.FileMode {
	// Shell scripts must come out executable.
	if strings.HasSuffix(a.Dst, ".sh") {
		return 0755
	}
	return 0644
}

// findDuplicates groups artifacts by destination and returns one group per
// destination that occurs more than once.
func findDuplicates(artifacts []Artifact) [][]Artifact {
	byDst := make(map[string][]Artifact)
	var order []string
	for _, a := range artifacts {
		if _, seen := byDst[a.Dst]; !seen {
			order = append(order, a.Dst)
		}
		byDst[a.Dst] = append(byDst[a.Dst], a)
	}

	var groups [][]Artifact
	for _, dst := range order {
		if len(byDst[dst]) > 1 {
			groups = append(groups, byDst[dst])
		}
	}
	return groups
}

// FindAppBuildDir returns the application build directory inside a build
// directory. Sysbuild projects carry a domains.yaml naming the default
// application; without one the build directory is its own application
// directory.
func FindAppBuildDir(buildDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(buildDir, "domains.yaml"))
	if os.IsNotExist(err) {
		return buildDir, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading domains.yaml: %w", err)
	}

	var domains struct {
		Default string `yaml:"default"`
	}
	if err := yaml.Unmarshal(data, &domains); err != nil {
		return "", fmt.Errorf("parsing domains.yaml in %s: %w", buildDir, err)
	}
	if domains.Default == "" {
		return "", fmt.Errorf("domains.yaml in %s has no default domain", buildDir)
	}

	return filepath.Join(buildDir, domains.Default), nil
}
