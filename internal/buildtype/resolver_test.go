package buildtype_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/embeddedforge/hoist/internal/buildtype"
	"github.com/embeddedforge/hoist/internal/models"
)

func testDescriptor() *models.Descriptor {
	return &models.Descriptor{
		Apps: []models.AppConfig{
			{
				Name: "main-app",
				BuildTypes: []models.BuildTypeConfig{
					{Type: "debug", ConfFiles: []string{"debug.conf"}},
					{Type: "uart", ConfFiles: []string{"debug.conf", "uart.conf"}},
				},
			},
		},
		Samples: []models.SampleConfig{
			{Name: "blinky"},
			{
				Name: "metrics",
				InheritBuildType: &models.InheritConfig{
					App:       "main-app",
					BuildType: "debug",
				},
			},
		},
	}
}

// projectLayout creates a project root with app and samples directories and
// returns the root.
func projectLayout(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join("app", "conf"),
		filepath.Join("samples", "blinky"),
		filepath.Join("samples", "metrics"),
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("creating %s: %v", dir, err)
		}
	}
	return root
}

func TestResolveAppScopeNoBuildType(t *testing.T) {
	root := projectLayout(t)

	args, diag, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []string{"-DCONF_FILE=conf/common.conf"}
	if len(args) != 1 || args[0] != want[0] {
		t.Errorf("expected %v, got %v", want, args)
	}
	if !strings.Contains(diag, "build folder not found") {
		t.Errorf("expected build-folder-not-found diagnostic, got %q", diag)
	}
}

func TestResolveWithBuildTypeAndBoard(t *testing.T) {
	root := projectLayout(t)
	boardConf := filepath.Join(root, "app", "conf", "nrf52840dk_nrf52840.conf")
	if err := os.WriteFile(boardConf, nil, 0644); err != nil {
		t.Fatalf("writing board conf: %v", err)
	}

	args, _, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		BuildType:  "uart",
		Board:      "nrf52840dk_nrf52840@1.0.0",
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", args)
	}
	wantOverlay := "-DOVERLAY_CONFIG=conf/nrf52840dk_nrf52840.conf;conf/debug.conf;conf/uart.conf"
	if args[1] != wantOverlay {
		t.Errorf("expected %q, got %q", wantOverlay, args[1])
	}
}

func TestResolveReleaseAliasMeansCommonOnly(t *testing.T) {
	root := projectLayout(t)

	args, _, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		BuildType:  "release",
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(args) != 1 || args[0] != "-DCONF_FILE=conf/common.conf" {
		t.Errorf("release must resolve to common config only, got %v", args)
	}
}

func TestResolveUnknownBuildType(t *testing.T) {
	root := projectLayout(t)

	_, _, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		BuildType:  "ghost",
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected error naming the invalid build type, got: %v", err)
	}
}

func TestResolveOutsideAppScope(t *testing.T) {
	root := projectLayout(t)

	// Without a build type this is a silent no-op.
	args, diag, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		Cwd:        root,
		ProjectDir: root,
	})
	if err != nil || len(args) != 0 || diag != "" {
		t.Errorf("expected empty result outside app scope, got %v %q %v", args, diag, err)
	}

	// With one it is a misuse error.
	_, _, err = buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		BuildType:  "debug",
		Cwd:        root,
		ProjectDir: root,
	})
	if err == nil {
		t.Fatal("expected misuse error for --build-type outside app scope")
	}
}

func TestResolveNoDescriptor(t *testing.T) {
	root := projectLayout(t)

	args, _, err := buildtype.Resolve(buildtype.Request{
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err != nil || len(args) != 0 {
		t.Errorf("expected empty result without a descriptor, got %v %v", args, err)
	}

	_, _, err = buildtype.Resolve(buildtype.Request{
		BuildType:  "debug",
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err == nil {
		t.Fatal("expected misuse error for --build-type without a descriptor")
	}
}

func TestResolveSampleWithoutInherit(t *testing.T) {
	root := projectLayout(t)

	args, _, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		Cwd:        filepath.Join(root, "samples", "blinky"),
		ProjectDir: root,
	})
	if err != nil || len(args) != 0 {
		t.Errorf("expected plain west behavior for a sample without inherit, got %v %v", args, err)
	}
}

func TestResolveSampleInheritsAppBuildType(t *testing.T) {
	root := projectLayout(t)

	args, _, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		Cwd:        filepath.Join(root, "samples", "metrics"),
		ProjectDir: root,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", args)
	}
	if args[0] != "-DCONF_FILE=../../app/conf/common.conf" {
		t.Errorf("unexpected CONF_FILE arg: %s", args[0])
	}
	if args[1] != "-DOVERLAY_CONFIG=../../app/conf/debug.conf" {
		t.Errorf("unexpected OVERLAY_CONFIG arg: %s", args[1])
	}
}

func TestResolveSourceDirSelectsScope(t *testing.T) {
	root := projectLayout(t)

	args, _, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		BuildType:  "debug",
		SourceDir:  "app",
		Cwd:        root,
		ProjectDir: root,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(args) != 2 || args[0] != "-DCONF_FILE=conf/common.conf" {
		t.Errorf("expected app-scope args via source dir, got %v", args)
	}
}

func TestResolveMatchingBuildFolderReturnsNothing(t *testing.T) {
	root := projectLayout(t)
	buildDir := filepath.Join(root, "app", "build")
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		t.Fatalf("creating build dir: %v", err)
	}
	cache := `# Generated file
set(CACHED_CONF_FILE "conf/common.conf" CACHE INTERNAL "")
set(OVERLAY_CONFIG "conf/debug.conf" CACHE INTERNAL "")
`
	if err := os.WriteFile(filepath.Join(buildDir, "image_preload.cmake"), []byte(cache), 0644); err != nil {
		t.Fatalf("writing cache file: %v", err)
	}

	args, diag, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		BuildType:  "debug",
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(args) != 0 || diag != "" {
		t.Errorf("expected no args when build folder matches, got %v %q", args, diag)
	}
}

func TestResolveStaleBuildFolderForcesRebuild(t *testing.T) {
	root := projectLayout(t)
	buildDir := filepath.Join(root, "app", "build")
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		t.Fatalf("creating build dir: %v", err)
	}
	cache := `set(CACHED_CONF_FILE "conf/common.conf" CACHE INTERNAL "")
set(OVERLAY_CONFIG "conf/uart.conf" CACHE INTERNAL "")
`
	if err := os.WriteFile(filepath.Join(buildDir, "image_preload.cmake"), []byte(cache), 0644); err != nil {
		t.Fatalf("writing cache file: %v", err)
	}

	args, diag, err := buildtype.Resolve(buildtype.Request{
		Descriptor: testDescriptor(),
		BuildType:  "debug",
		Cwd:        filepath.Join(root, "app"),
		ProjectDir: root,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(args) != 2 {
		t.Fatalf("expected required args for a stale build folder, got %v", args)
	}
	if diag != buildtype.DiagOldSettings {
		t.Errorf("expected old-settings diagnostic, got %q", diag)
	}
}
