package pack_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/embeddedforge/hoist/internal/pack"
	"github.com/embeddedforge/hoist/internal/runner"
	"github.com/embeddedforge/hoist/internal/twister"
)

func TestRewriteForBatches(t *testing.T) {
	cwd := t.TempDir()
	buildDir := filepath.Join("twister-out", "nrf52840dk_nrf52840", "app", "app.prod")
	parent := filepath.Join(cwd, buildDir)

	batchPath := filepath.Join(parent, "app", "zephyr", "generated_nrfutil_batch.json")
	if err := os.MkdirAll(filepath.Dir(batchPath), 0755); err != nil {
		t.Fatalf("creating batch dir: %v", err)
	}
	content := `{
  "operations": [
    {"operation": {"firmware": {"file": "` + filepath.ToSlash(filepath.Join(parent, "merged.hex")) + `"}}}
  ],
  "nrfutil_device_version": "2.7.10"
}`
	if err := os.WriteFile(batchPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing batch file: %v", err)
	}

	extMemPath := filepath.Join(parent, "ext_mem_config.json")
	dryRun := "-- west flash: using runner nrfutil\n" +
		"nrfutil --json device --x-ext-mem-config-file " + extMemPath +
		" x-execute-batch --batch-path " + batchPath + " --serial-number 123\n"

	rec := &runner.Recorder{Outputs: map[string]string{
		"west flash --dry-run --skip-rebuild -d " + buildDir: dryRun,
	}}

	suites := []twister.Suite{{
		Name:    "app.prod",
		Board:   "nrf52840dk_nrf52840",
		OutPath: filepath.Join("nrf52840dk_nrf52840", "app", "app.prod"),
		Status:  "passed",
	}}
	plan := &pack.Plan{
		Projects: []pack.ProjectPlan{
			{Name: "app.prod", Artifacts: []string{"merged.hex"}, Batch: true},
		},
	}

	err := pack.RewriteForBatches(context.Background(), rec, cwd, "twister-out", suites, plan)
	if err != nil {
		t.Fatalf("RewriteForBatches failed: %v", err)
	}

	project := plan.Project("app.prod")

	// merged.hex was already listed, so the discovered firmware file must not
	// duplicate it; the ext mem config gets appended.
	want := []string{"merged.hex", "ext_mem_config.json"}
	if !reflect.DeepEqual(project.Artifacts, want) {
		t.Errorf("expected artifacts %v, got %v", want, project.Artifacts)
	}

	if len(project.Batches) != 1 {
		t.Fatalf("expected 1 batch file, got %d", len(project.Batches))
	}
	bf := project.Batches[0]
	if bf.Name != "app_generated_nrfutil_batch.json" {
		t.Errorf("unexpected batch name: %s", bf.Name)
	}
	if bf.ExtMemConfigName != "ext_mem_config.json" {
		t.Errorf("unexpected ext mem config name: %s", bf.ExtMemConfigName)
	}
}

func TestRewriteForBatchesNoMatchingOutput(t *testing.T) {
	rec := &runner.Recorder{Outputs: map[string]string{
		"west flash --dry-run --skip-rebuild -d " + filepath.Join("twister-out", "b", "app.prod"): "nothing to see here\n",
	}}

	suites := []twister.Suite{{Name: "app.prod", OutPath: filepath.Join("b", "app.prod"), Status: "passed"}}
	plan := &pack.Plan{
		Projects: []pack.ProjectPlan{{Name: "app.prod", Artifacts: []string{"merged.hex"}, Batch: true}},
	}

	err := pack.RewriteForBatches(context.Background(), rec, t.TempDir(), "twister-out", suites, plan)
	if err != nil {
		t.Fatalf("RewriteForBatches failed: %v", err)
	}

	// No batch invocation in the output is not an error, the unit simply has
	// no flashable content.
	project := plan.Project("app.prod")
	if len(project.Batches) != 0 || len(project.Artifacts) != 1 {
		t.Errorf("expected the project to pass through unchanged, got %+v", project)
	}
}

func TestRewriteForBatchesSkipsNonBatchProjects(t *testing.T) {
	rec := &runner.Recorder{}

	suites := []twister.Suite{{Name: "app.debug", OutPath: filepath.Join("b", "app.debug"), Status: "passed"}}
	plan := &pack.Plan{
		Projects: []pack.ProjectPlan{{Name: "app.debug", Artifacts: []string{"merged.hex"}}},
	}

	err := pack.RewriteForBatches(context.Background(), rec, t.TempDir(), "twister-out", suites, plan)
	if err != nil {
		t.Fatalf("RewriteForBatches failed: %v", err)
	}
	if len(rec.Calls) != 0 {
		t.Errorf("expected no dry-run invocations, got %v", rec.Calls)
	}
}
