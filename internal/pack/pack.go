package pack

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/embeddedforge/hoist/internal/gitver"
	"github.com/embeddedforge/hoist/internal/twister"
	"github.com/embeddedforge/hoist/internal/workspace"
)

// scriptsDirName is the folder inside a build configuration's pack output
// that receives the generated flashing scripts.
const scriptsDirName = "scripts"

// Options are the pack command's knobs.
type Options struct {
	// TwisterOut is the twister output directory.
	TwisterOut string
	// PackDir is the output directory. It is recreated from scratch.
	PackDir string
	// Tag overrides git describe. It asserts the HEAD is on the tagged
	// commit and the repo is clean.
	Tag string
}

// Run executes the pack pipeline. Every validation step happens before the
// first filesystem write, so a failing run leaves no partial output.
func Run(ctx context.Context, ws *workspace.Workspace, opts Options) error {
	descriptor, err := ws.RequireDescriptor()
	if err != nil {
		return err
	}

	plan, err := PlanFromDescriptor(descriptor)
	if err != nil {
		return err
	}

	if _, err := os.Stat(opts.TwisterOut); err != nil {
		return fmt.Errorf(
			"%s directory was not found, run twister first and try again", opts.TwisterOut)
	}

	suites, err := twister.LoadReport(opts.TwisterOut)
	if err != nil {
		return err
	}

	if err := checkForFailedSuites(suites); err != nil {
		return err
	}

	version, err := resolveVersion(ctx, ws, opts.Tag)
	if err != nil {
		return err
	}
	ws.Log.Info("packing", "version", version)

	if err := RewriteForBatches(ctx, ws.Runner, ws.Cwd, opts.TwisterOut, suites, plan); err != nil {
		return err
	}

	built := make(map[string]twister.Suite)
	var artifacts []Artifact
	perUnit := make(map[string][]Artifact)

	for _, suite := range suites {
		if !suite.DidBuild() {
			continue
		}
		built[suite.Name] = suite

		srcDir := filepath.Join(opts.TwisterOut, suite.OutPath)
		appDir, err := FindAppBuildDir(srcDir)
		if err != nil {
			return err
		}
		appBuildDir, err := filepath.Rel(srcDir, appDir)
		if err != nil {
			return err
		}

		unitArtifacts := BuildArtifacts(
			suite, plan.ArtifactsFor(suite.Name), appBuildDir, opts.TwisterOut, opts.PackDir, version)
		artifacts = append(artifacts, unitArtifacts...)
		perUnit[suite.Name] = unitArtifacts
	}

	for _, project := range plan.Projects {
		if _, ok := built[project.Name]; !ok {
			return fmt.Errorf(
				"build configuration %q from the pack section matches none of the built projects in %s",
				project.Name, twister.ReportName)
		}
	}

	if err := checkArtifactsExist(artifacts); err != nil {
		return err
	}
	if err := checkForDuplicates(artifacts); err != nil {
		return err
	}

	var extras []Artifact
	for _, declared := range plan.Extras {
		extra := ExtraArtifact(declared, opts.PackDir, version)
		// Extra artifacts are declared relative to the project root.
		if !filepath.IsAbs(extra.Src) {
			extra.Src = filepath.Join(ws.ProjectDir, extra.Src)
		}
		extras = append(extras, extra)
	}
	if err := checkArtifactsExist(extras); err != nil {
		return err
	}
	if err := checkForDuplicates(extras); err != nil {
		return err
	}
	artifacts = append(artifacts, extras...)

	generated, err := generateBatchArtifacts(plan, built, perUnit, opts.PackDir)
	if err != nil {
		return err
	}
	artifacts = append(artifacts, generated...)

	// All checks passed, time for filesystem operations.
	if err := os.RemoveAll(opts.PackDir); err != nil {
		return fmt.Errorf("removing %s: %w", opts.PackDir, err)
	}

	for _, a := range artifacts {
		if err := a.Place(); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(opts.PackDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.PackDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		src := filepath.Join(opts.PackDir, entry.Name())
		dst := filepath.Join(opts.PackDir, entry.Name()+"-"+version+".zip")
		ws.Log.Info("archiving", "zip", filepath.Base(dst))
		if err := ZipDirectory(src, dst); err != nil {
			return err
		}
	}

	return nil
}

func resolveVersion(ctx context.Context, ws *workspace.Workspace, tag string) (string, error) {
	var pt gitver.ParsedTag
	if tag != "" {
		pt = gitver.FromTag(tag)
	} else {
		semver, err := gitver.Describe(ctx, ws.Runner, ws.ProjectDir)
		if err != nil {
			return "", err
		}
		return semver.String(), nil
	}

	semver, err := gitver.FromParsedTag(pt)
	if err != nil {
		return "", err
	}
	return semver.String(), nil
}

func checkForFailedSuites(suites []twister.Suite) error {
	var failed []string
	for _, s := range suites {
		if s.DidFail() {
			failed = append(failed, fmt.Sprintf("- %s, status: %s", s.Name, s.Status))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf(
		"the %s file contains failed runs:\n%s\n\nfix the above runs, rerun twister and pack again",
		twister.ReportName, strings.Join(failed, "\n"))
}

// checkArtifactsExist verifies every artifact source is on disk. The pack
// section is easy to misconfigure against twister's output, so missing files
// are reported per build unit with enough context to fix the descriptor.
func checkArtifactsExist(artifacts []Artifact) error {
	var missing []Artifact
	for _, a := range artifacts {
		if !a.Exists() {
			missing = append(missing, a)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("the pack section does not match the output generated by twister, ")
	b.WriteString("the following files are missing:\n")

	var order []string
	grouped := make(map[string][]Artifact)
	for _, a := range missing {
		key := a.Suite.Name
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], a)
	}

	for _, key := range order {
		group := grouped[key]
		suite := group[0].Suite
		if suite.Name != "" {
			fmt.Fprintf(&b, "\nproject: %s\nboard: %s\nbuild folder: %s\nmissing:", suite.Name, suite.RawBoard, suite.OutPath)
		} else {
			b.WriteString("\nextra artifacts missing:")
		}
		for _, a := range group {
			fmt.Fprintf(&b, " %s", a.Name)
		}
		b.WriteString("\n")
	}

	return fmt.Errorf("%s", b.String())
}

func checkForDuplicates(artifacts []Artifact) error {
	groups := findDuplicates(artifacts)
	if len(groups) == 0 {
		return nil
	}

	var dsts []string
	for _, group := range groups {
		dsts = append(dsts, group[0].Dst)
	}
	return fmt.Errorf("duplicated destination artifacts were generated: %s",
		strings.Join(dsts, ", "))
}

// generateBatchArtifacts produces the rewritten batch files and the flashing
// scripts for every build configuration with batch packing enabled. Firmware
// references inside the batch files are substituted with the renamed
// artifact names, since that is what sits next to them in the pack output.
func generateBatchArtifacts(plan *Plan, built map[string]twister.Suite, perUnit map[string][]Artifact, packDir string) ([]Artifact, error) {
	var generated []Artifact

	for _, project := range plan.Projects {
		if !project.Batch || len(project.Batches) == 0 {
			continue
		}

		suite := built[project.Name]
		unitArtifacts := perUnit[project.Name]
		dstDir := filepath.Join(packDir, suite.Name, suite.Board)

		deviceVersion := ""
		var batches []BatchFile
		for _, bf := range project.Batches {
			rewritten := bf
			var err error
			for _, a := range unitArtifacts {
				rewritten, err = rewritten.UpdateMatchingFwFile(a.Name, a.RenamedName)
				if err != nil {
					return nil, err
				}
			}

			if rewritten.ExtMemConfigName != "" {
				rewritten.ExtMemConfigName = renamedFor(unitArtifacts, rewritten.ExtMemConfigName)
			}

			version, err := rewritten.DeviceVersion()
			if err != nil {
				return nil, err
			}
			if version != "" {
				deviceVersion = version
			}

			batches = append(batches, rewritten)
			generated = append(generated, Artifact{
				Dst:     filepath.Join(dstDir, rewritten.Name),
				Content: []byte(rewritten.Content),
				Suite:   suite,
				Name:    rewritten.Name,
			})
		}

		if deviceVersion == "" {
			return nil, fmt.Errorf(
				"no nrfutil_device_version found in the batch files of %s, cannot generate flash scripts",
				project.Name)
		}

		scripts := FlashScripts(batches, deviceVersion)
		for _, name := range slices.Sorted(maps.Keys(scripts)) {
			generated = append(generated, Artifact{
				Dst:     filepath.Join(dstDir, scriptsDirName, name),
				Content: []byte(scripts[name]),
				Suite:   suite,
				Name:    name,
			})
		}
	}

	return generated, nil
}

// renamedFor maps a file name from a batch invocation onto the renamed
// artifact that will sit in the pack output, falling back to the original
// name when no artifact matches.
func renamedFor(artifacts []Artifact, fileName string) string {
	for _, a := range artifacts {
		if path.Base(a.Name) == fileName {
			return a.RenamedName
		}
	}
	return fileName
}
