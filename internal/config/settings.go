package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings are the per-user defaults read from the hoist settings file. Every
// value can be overridden by a command line flag.
type Settings struct {
	TwisterOut string `toml:"twister_out"`
	PackDir    string `toml:"pack_dir"`
	ReleaseDir string `toml:"release_dir"`
	LogLevel   string `toml:"log_level"`
}

// DefaultSettings returns a Settings with default values.
func DefaultSettings() Settings {
	return Settings{
		TwisterOut: "twister-out",
		PackDir:    "package",
		ReleaseDir: "release",
		LogLevel:   "info",
	}
}

// SettingsPath returns the default location of the settings file,
// $XDG_CONFIG_HOME/hoist/config.toml.
func SettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, "hoist", "config.toml"), nil
}

// LoadSettings loads the settings file from the given path. A missing file
// yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}

	if _, err := toml.Decode(string(data), &s); err != nil {
		return s, fmt.Errorf("parsing settings: %w", err)
	}

	// Treat explicitly emptied values as unset.
	if s.TwisterOut == "" {
		s.TwisterOut = "twister-out"
	}
	if s.PackDir == "" {
		s.PackDir = "package"
	}
	if s.ReleaseDir == "" {
		s.ReleaseDir = "release"
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}

	return s, nil
}
