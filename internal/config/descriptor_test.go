package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/embeddedforge/hoist/internal/config"
)

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hoist.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing descriptor: %v", err)
	}
	return path
}

func TestLoadDescriptor(t *testing.T) {
	path := writeDescriptor(t, `apps:
  - name: nrf52-prod
    west-boards:
      - nrf52840dk_nrf52840
    build-types:
      - type: debug
        conf-files:
          - debug.conf
      - type: uart
        conf-files:
          - debug.conf
          - uart.conf
samples:
  - name: blinky
    west-boards:
      - nrf52840dk_nrf52840
    inherit-build-type:
      app: nrf52-prod
      build-type: debug
pack:
  artifacts:
    - merged.hex
  build_configurations:
    - name: app.prod
      artifacts:
        - dfu_application.zip
      nrfutil_flash_pack: true
  extra:
    - scripts/provision.json
version:
  paths:
    - app
`)

	d, err := config.LoadDescriptor(path)
	if err != nil {
		t.Fatalf("LoadDescriptor failed: %v", err)
	}

	app := d.App("nrf52-prod")
	if app == nil {
		t.Fatal("expected app nrf52-prod")
	}
	bt := app.BuildType("uart")
	if bt == nil {
		t.Fatal("expected build type uart")
	}
	if len(bt.ConfFiles) != 2 || bt.ConfFiles[1] != "uart.conf" {
		t.Errorf("unexpected conf files: %v", bt.ConfFiles)
	}

	sample := d.Sample("blinky")
	if sample == nil || sample.InheritBuildType == nil {
		t.Fatal("expected sample blinky with inheritance")
	}
	if sample.InheritBuildType.App != "nrf52-prod" {
		t.Errorf("unexpected inherited app: %s", sample.InheritBuildType.App)
	}

	if d.Pack == nil || !d.Pack.BuildConfigurations[0].NrfutilFlashPack {
		t.Error("expected nrfutil_flash_pack to be set")
	}
	if d.Version == nil || d.Version.Paths[0] != "app" {
		t.Error("expected version paths")
	}
}

func TestLoadDescriptorMissingFile(t *testing.T) {
	d, err := config.LoadDescriptor(filepath.Join(t.TempDir(), "hoist.yml"))
	if err != nil {
		t.Fatalf("missing descriptor must not be an error, got: %v", err)
	}
	if d != nil {
		t.Error("expected nil descriptor for a missing file")
	}
}

func TestLoadDescriptorDuplicatedApps(t *testing.T) {
	path := writeDescriptor(t, `apps:
  - name: one
  - name: one
`)

	if _, err := config.LoadDescriptor(path); err == nil {
		t.Fatal("expected error for duplicated app names")
	}
}

func TestLoadDescriptorInheritFromMissingApp(t *testing.T) {
	path := writeDescriptor(t, `apps:
  - name: one
samples:
  - name: blinky
    inherit-build-type:
      app: ghost
      build-type: debug
`)

	_, err := config.LoadDescriptor(path)
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected error naming the missing app, got: %v", err)
	}
}

func TestLoadDescriptorInheritReleaseIsImplicit(t *testing.T) {
	path := writeDescriptor(t, `apps:
  - name: one
samples:
  - name: blinky
    inherit-build-type:
      app: one
      build-type: release
`)

	if _, err := config.LoadDescriptor(path); err != nil {
		t.Fatalf("release must be implicitly valid, got: %v", err)
	}
}

func TestLoadDescriptorBothArtifactStyles(t *testing.T) {
	path := writeDescriptor(t, `pack:
  artifacts:
    - merged.hex
  build_configurations:
    - name: app.prod
      artifacts:
        - a.hex
      overwrite_artifacts:
        - b.hex
`)

	_, err := config.LoadDescriptor(path)
	if err == nil || !strings.Contains(err.Error(), "app.prod") {
		t.Fatalf("expected error naming the offending configuration, got: %v", err)
	}
}

func TestLoadDescriptorNeitherArtifactStyle(t *testing.T) {
	path := writeDescriptor(t, `pack:
  build_configurations:
    - name: app.prod
      nrfutil_flash_pack: true
`)

	if _, err := config.LoadDescriptor(path); err == nil {
		t.Fatal("expected error for a configuration with no artifact list")
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `twister_out = "out"
pack_dir = "dist"
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}

	s, err := config.LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if s.TwisterOut != "out" {
		t.Errorf("expected twister_out out, got %s", s.TwisterOut)
	}
	if s.PackDir != "dist" {
		t.Errorf("expected pack_dir dist, got %s", s.PackDir)
	}
	if s.ReleaseDir != "release" {
		t.Errorf("expected default release_dir, got %s", s.ReleaseDir)
	}
	if s.LogLevel != "debug" {
		t.Errorf("expected log_level debug, got %s", s.LogLevel)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := config.LoadSettings(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing settings file must not be an error, got: %v", err)
	}
	if s != config.DefaultSettings() {
		t.Errorf("expected defaults, got %+v", s)
	}
}
