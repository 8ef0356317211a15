package release_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/embeddedforge/hoist/internal/release"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, []byte(f), 0644); err != nil {
			t.Fatalf("writing %s: %v", full, err)
		}
	}
}

func relBinaries(t *testing.T, buildDir string, binaries []string) []string {
	t.Helper()
	rel := make([]string, len(binaries))
	for i, b := range binaries {
		r, err := filepath.Rel(buildDir, b)
		if err != nil {
			t.Fatalf("relativizing %s: %v", b, err)
		}
		rel[i] = filepath.ToSlash(r)
	}
	return rel
}

func TestCollectBinariesBasicBuild(t *testing.T) {
	buildDir := t.TempDir()
	writeFiles(t, buildDir, "zephyr/zephyr.bin", "zephyr/zephyr.hex", "zephyr/zephyr.elf")

	binaries, err := release.CollectBinaries(buildDir, false)
	if err != nil {
		t.Fatalf("collecting binaries: %v", err)
	}

	want := []string{"zephyr/zephyr.bin", "zephyr/zephyr.hex", "zephyr/zephyr.elf"}
	if got := relBinaries(t, buildDir, binaries); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectBinariesMergedHex(t *testing.T) {
	buildDir := t.TempDir()
	writeFiles(t, buildDir, "zephyr/merged.hex", "zephyr/zephyr.elf")

	binaries, err := release.CollectBinaries(buildDir, false)
	if err != nil {
		t.Fatalf("collecting binaries: %v", err)
	}

	want := []string{"zephyr/merged.hex", "zephyr/zephyr.elf"}
	if got := relBinaries(t, buildDir, binaries); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectBinariesMcuboot(t *testing.T) {
	buildDir := t.TempDir()
	writeFiles(t, buildDir, "zephyr/app_update.bin", "zephyr/merged.hex", "zephyr/zephyr.elf")

	binaries, err := release.CollectBinaries(buildDir, false)
	if err != nil {
		t.Fatalf("collecting binaries: %v", err)
	}

	want := []string{"zephyr/dfu_application.zip", "zephyr/app_update.bin", "zephyr/merged.hex", "zephyr/zephyr.elf"}
	if got := relBinaries(t, buildDir, binaries); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectBinariesSysbuild(t *testing.T) {
	buildDir := t.TempDir()
	writeFiles(t, buildDir,
		"merged.hex",
		"dfu_application.zip",
		"main-app/zephyr/zephyr.elf",
		"main-app/zephyr/zephyr.signed.bin",
	)
	if err := os.WriteFile(filepath.Join(buildDir, "domains.yaml"), []byte("default: main-app\n"), 0644); err != nil {
		t.Fatalf("writing domains.yaml: %v", err)
	}

	binaries, err := release.CollectBinaries(buildDir, false)
	if err != nil {
		t.Fatalf("collecting binaries: %v", err)
	}

	want := []string{
		"merged.hex",
		"main-app/zephyr/zephyr.elf",
		"dfu_application.zip",
		"main-app/zephyr/zephyr.signed.bin",
	}
	if got := relBinaries(t, buildDir, binaries); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectBinariesSysbuildUnsignedFallback(t *testing.T) {
	buildDir := t.TempDir()
	writeFiles(t, buildDir,
		"merged.hex",
		"main-app/zephyr/zephyr.elf",
		"main-app/zephyr/zephyr.bin",
	)
	if err := os.WriteFile(filepath.Join(buildDir, "domains.yaml"), []byte("default: main-app\n"), 0644); err != nil {
		t.Fatalf("writing domains.yaml: %v", err)
	}

	binaries, err := release.CollectBinaries(buildDir, false)
	if err != nil {
		t.Fatalf("collecting binaries: %v", err)
	}

	want := []string{"merged.hex", "main-app/zephyr/zephyr.elf", "main-app/zephyr/zephyr.bin"}
	if got := relBinaries(t, buildDir, binaries); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectBinariesDryRun(t *testing.T) {
	binaries, err := release.CollectBinaries(filepath.Join(t.TempDir(), "build"), true)
	if err != nil {
		t.Fatalf("collecting binaries: %v", err)
	}
	if len(binaries) != 4 {
		t.Errorf("expected the full dummy candidate set, got %v", binaries)
	}
}
