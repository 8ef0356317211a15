package pack

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/embeddedforge/hoist/internal/runner"
	"github.com/embeddedforge/hoist/internal/twister"
)

// executeBatchPattern matches the nrfutil invocation west prints during a
// dry-run flash. Group 1 is the optional external memory configuration file,
// group 2 the batch file path.
var executeBatchPattern = regexp.MustCompile(
	`nrfutil\s+--json\s+device\s+` +
		`(?:--x-ext-mem-config-file\s+(\S+)\s+)?` +
		`x-execute-batch\s+` +
		`--batch-path\s+(\S+)`)

// RewriteForBatches runs west's dry-run flash for every plan project with
// batch packing enabled and extends that project's artifact list with the
// firmware files and external memory configurations the flash would use. The
// discovered batch files are attached to the project for later rewriting.
//
// Projects without batch packing pass through unchanged. A dry run whose
// output contains no batch invocation leaves the project without extra
// files; some units have no flashable content.
func RewriteForBatches(ctx context.Context, r runner.Runner, cwd, twisterOut string, suites []twister.Suite, plan *Plan) error {
	for _, suite := range suites {
		project := plan.Project(suite.Name)
		if project == nil || !project.Batch {
			continue
		}

		buildDir := filepath.Join(twisterOut, suite.OutPath)

		out, err := r.Output(ctx, cwd, "west", "flash", "--dry-run", "--skip-rebuild", "-d", buildDir)
		if err != nil {
			return fmt.Errorf("dry-run flash for %s: %w", suite.Name, err)
		}

		fwFiles, extMemCfgs, batches, err := parseDryRunOutput(out)
		if err != nil {
			return err
		}

		// Firmware references in the dry-run output are absolute; artifact
		// patterns are relative to the unit's build directory.
		parent := filepath.Join(cwd, buildDir)
		for _, fw := range fwFiles {
			rel, err := filepath.Rel(parent, fw)
			if err != nil {
				return fmt.Errorf("resolving firmware path %s against %s: %w", fw, parent, err)
			}
			project.Artifacts = appendUnique(project.Artifacts, filepath.ToSlash(rel))
		}
		for _, cfg := range extMemCfgs {
			if filepath.IsAbs(cfg) {
				if rel, err := filepath.Rel(parent, cfg); err == nil {
					cfg = filepath.ToSlash(rel)
				}
			}
			project.Artifacts = appendUnique(project.Artifacts, cfg)
		}

		project.Batches = batches
	}

	return nil
}

func parseDryRunOutput(output string) (fwFiles, extMemCfgs []string, batches []BatchFile, err error) {
	for _, line := range strings.Split(output, "\n") {
		match := executeBatchPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		extMemCfg := match[1]
		batchPath := match[2]

		extMemCfgName := ""
		if extMemCfg != "" {
			extMemCfgs = append(extMemCfgs, extMemCfg)
			extMemCfgName = filepath.Base(extMemCfg)
		}

		bf, err := BatchFileFromPath(batchPath, extMemCfgName)
		if err != nil {
			return nil, nil, nil, err
		}
		batches = append(batches, bf)

		files, err := bf.FwFiles()
		if err != nil {
			return nil, nil, nil, err
		}
		fwFiles = append(fwFiles, files...)
	}

	return fwFiles, extMemCfgs, batches, nil
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
