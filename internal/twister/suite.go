// Package twister loads build units from the twister.json report manifest
// that Zephyr's twister runner writes next to its build output.
package twister

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ReportName is the manifest file name inside the twister output directory.
const ReportName = "twister.json"

// Suite represents a single built configuration (one testsuite entry in
// twister.json).
type Suite struct {
	// Name of the testsuite, e.g. app.prod or blinky.debug.
	Name string
	// Board is the normalized board name, e.g. nrf52840dk_nrf52840.
	Board string
	// RawBoard is the platform exactly as twister reports it, e.g.
	// nrf52840dk/nrf52840.
	RawBoard string
	// Path to the project the testsuite was built from.
	Path string
	// OutPath is the suite's build directory relative to the twister output
	// directory. Its shape depends on the twister version that produced the
	// manifest.
	OutPath string
	// Status as reported by twister: passed, failed, skipped or not run.
	Status string
	// Runnable reports whether twister considered the suite executable on a
	// device, as opposed to build-only.
	Runnable bool
}

type reportSuite struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	RunID    string `json:"run_id"`
	Status   string `json:"status"`
	Runnable bool   `json:"runnable"`
}

type report struct {
	Environment struct {
		ZephyrVersion string `json:"zephyr_version"`
	} `json:"environment"`
	Testsuites []reportSuite `json:"testsuites"`
}

// LoadReport parses twister.json from the given twister output directory into
// a list of suites, in manifest order.
func LoadReport(twisterOut string) ([]Suite, error) {
	data, err := os.ReadFile(filepath.Join(twisterOut, ReportName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ReportName, err)
	}

	var r report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ReportName, err)
	}

	if r.Testsuites == nil {
		return nil, fmt.Errorf("%s is missing the testsuites key", ReportName)
	}

	suites := make([]Suite, 0, len(r.Testsuites))
	for _, rs := range r.Testsuites {
		if rs.Name == "" || rs.Platform == "" || rs.Status == "" {
			return nil, fmt.Errorf(
				"testsuite entry %+v in %s is missing one of the required keys name, platform, status",
				rs, ReportName)
		}

		board := strings.ReplaceAll(rs.Platform, "/", "_")

		outPath, err := suiteOutPath(r.Environment.ZephyrVersion, board, rs.Name)
		if err != nil {
			return nil, err
		}

		suites = append(suites, Suite{
			Name:     path.Base(rs.Name),
			Board:    board,
			RawBoard: rs.Platform,
			Path:     path.Dir(rs.Name),
			OutPath:  outPath,
			Status:   rs.Status,
			Runnable: rs.Runnable,
		})
	}

	return suites, nil
}

// suiteOutPath returns the suite build directory relative to the twister
// output directory. Twister changed the layout between Zephyr major versions:
// v3 places builds at <board>/<name>, v4 at <board>/zephyr/<name>.
func suiteOutPath(zephyrVersion, board, name string) (string, error) {
	switch {
	case strings.HasPrefix(zephyrVersion, "v3"):
		return filepath.Join(board, name), nil
	case strings.HasPrefix(zephyrVersion, "v4"):
		return filepath.Join(board, "zephyr", name), nil
	default:
		return "", fmt.Errorf("unrecognized zephyr_version %q in %s", zephyrVersion, ReportName)
	}
}

// DidBuild reports whether the suite produced build output. A suite that was
// not run but is marked non-runnable still built; twister reports build-only
// suites that way.
func (s Suite) DidBuild() bool {
	if s.Status == "passed" {
		return true
	}
	return (s.Status == "not run" || s.Status == "skipped") && !s.Runnable
}

// DidFail reports whether the suite failed.
func (s Suite) DidFail() bool {
	return s.Status == "failed"
}
