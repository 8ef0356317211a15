package release

import (
	"os"
	"path/filepath"

	"github.com/embeddedforge/hoist/internal/pack"
)

// CollectBinaries returns the conventional build outputs to release from a
// build directory. The list holds candidate paths; callers skip entries that
// are not on disk. dryRun returns the full candidate set so dummy artifacts
// can be created for it.
func CollectBinaries(buildDir string, dryRun bool) ([]string, error) {
	if fileExists(filepath.Join(buildDir, "domains.yaml")) {
		return collectSysbuildBinaries(buildDir, dryRun)
	}
	return collectPlainBinaries(buildDir, dryRun), nil
}

func collectSysbuildBinaries(buildDir string, dryRun bool) ([]string, error) {
	appDir, err := pack.FindAppBuildDir(buildDir)
	if err != nil {
		return nil, err
	}
	appZephyrDir := filepath.Join(appDir, "zephyr")

	// These two always exist.
	mergedHex := filepath.Join(buildDir, "merged.hex")
	zephyrElf := filepath.Join(appZephyrDir, "zephyr.elf")

	// This one might exist.
	dfuZip := filepath.Join(buildDir, "dfu_application.zip")

	// The signed update image might exist; otherwise the plain image stands
	// in for it.
	updateBin := filepath.Join(appZephyrDir, "zephyr.signed.bin")
	if !dryRun && !fileExists(updateBin) {
		updateBin = filepath.Join(appZephyrDir, "zephyr.bin")
	}

	if dryRun {
		return []string{mergedHex, zephyrElf, dfuZip, updateBin}, nil
	}

	binaries := []string{mergedHex, zephyrElf}
	if fileExists(dfuZip) {
		binaries = append(binaries, dfuZip)
	}
	return append(binaries, updateBin), nil
}

func collectPlainBinaries(buildDir string, dryRun bool) []string {
	zephyrDir := filepath.Join(buildDir, "zephyr")

	var names []string
	switch {
	case dryRun || fileExists(filepath.Join(zephyrDir, "app_update.bin")):
		// MCUboot build.
		names = []string{"dfu_application.zip", "app_update.bin", "merged.hex", "zephyr.elf"}
	case fileExists(filepath.Join(zephyrDir, "merged.hex")):
		// TFM, SPM and similar builds with child images.
		names = []string{"merged.hex", "zephyr.elf"}
	default:
		// Basic build, no merged.hex is generated.
		names = []string{"zephyr.bin", "zephyr.hex", "zephyr.elf"}
	}

	binaries := make([]string, len(names))
	for i, name := range names {
		binaries[i] = filepath.Join(zephyrDir, name)
	}
	return binaries
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
