package buildtype

import (
	"os"
	"strings"
)

// cacheFileName is the file CMake leaves in the build folder with the
// configuration the previous build used.
const cacheFileName = "image_preload.cmake"

// previousArgs reconstructs the CMake arguments of the previous build from
// the build folder's cache file. This is intentionally a narrow extraction of
// two known keys from a semi-structured dump, not a CMake parser: a key that
// is not found simply contributes nothing.
func previousArgs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	confFile := extractValue(string(data), "CACHED_CONF_FILE")
	args := []string{"-DCONF_FILE=" + confFile}

	if overlay := extractValue(string(data), "OVERLAY_CONFIG"); overlay != "" {
		args = append(args, "-DOVERLAY_CONFIG="+overlay)
	}

	return args, nil
}

// extractValue finds the first line containing key and returns its second
// whitespace-separated field with quotes stripped, or "" when the key is
// absent.
func extractValue(content, key string) string {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, key) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return ""
		}
		return strings.ReplaceAll(fields[1], `"`, "")
	}
	return ""
}
