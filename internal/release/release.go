package release

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/embeddedforge/hoist/internal/buildtype"
	"github.com/embeddedforge/hoist/internal/config"
	"github.com/embeddedforge/hoist/internal/gitver"
	"github.com/embeddedforge/hoist/internal/models"
	"github.com/embeddedforge/hoist/internal/pack"
	"github.com/embeddedforge/hoist/internal/runner"
	"github.com/embeddedforge/hoist/internal/workspace"
)

// Options are the release command's knobs.
type Options struct {
	// DryRun echoes the build commands and creates dummy artifacts instead
	// of building.
	DryRun bool
	// Verbose streams the west build output instead of capturing it.
	Verbose bool
}

// Version is the tag/hash pair used for release artifact names. Hash is
// empty when the release was built exactly on a clean tagged commit; a dirty
// checkout keeps the trailing marker on the hash.
type Version struct {
	Tag  string
	Hash string
}

// ResolveVersion derives the release version from git describe.
func ResolveVersion(ctx context.Context, r runner.Runner, dir string) (Version, error) {
	out, _ := r.Output(ctx, dir, "git", "describe", "--tags", "--always", "--long", "--dirty=+")

	pt, err := gitver.ParseDescribe(strings.TrimSpace(out))
	if err != nil {
		return Version{}, err
	}

	v := Version{Tag: pt.Tag}
	if v.Tag == "" {
		v.Tag = "v0.0.0"
	}

	if !pt.OnTag || pt.Dirty {
		v.Hash = pt.Hash
		if pt.Dirty {
			v.Hash += "+"
		}
	}
	return v, nil
}

// hashSuffix is the qualifier appended to artifact and zip names when the
// build did not happen exactly on a clean tagged commit.
func (v Version) hashSuffix() string {
	if v.Hash == "" {
		return ""
	}
	return "-" + v.Hash
}

// ArtifactName builds the base file name for a job's binaries. A board may
// carry a hardware revision (<board>@<revision>); the revision becomes an
// -hv marker in the name.
func ArtifactName(project, board string, v Version, buildType string) string {
	project = filepath.Base(project)

	board = strings.ReplaceAll(board, "@", "-hv")
	board = strings.ReplaceAll(board, "/", "_")

	suffix := ""
	if buildType != "" && buildType != config.ReleaseBuildType {
		suffix = "-" + buildType
	}

	return project + "-" + board + "-" + v.Tag + suffix + v.hashSuffix()
}

// job is one build invocation plus the placement of its binaries.
type job struct {
	// subdir in the release tree, apps or samples.
	subdir string
	// srcDir relative to the project root, handed to west build.
	srcDir       string
	board        string
	buildType    string
	artifactName string
	artifactDest string
}

// artifactDest computes the release-tree destination for a job. Apps get a
// per-build-type folder, samples do not.
func artifactDest(releaseDir, subdir, name, board, buildType string) string {
	board = strings.ReplaceAll(board, "/", "_")

	dest := filepath.Join(releaseDir, subdir, name)
	if subdir == "apps" && buildType != "" {
		return filepath.Join(dest, buildType, board)
	}
	return filepath.Join(dest, board)
}

func sourceDir(subdir, name string, singleApp bool) string {
	if subdir == "apps" {
		if singleApp {
			return "app"
		}
		return filepath.Join("app", name)
	}
	return filepath.Join("samples", name)
}

var cmakeProjectPattern = regexp.MustCompile(`project\(.*\)`)

// isSingleAppRepo reports whether the project keeps one single app directly
// in the app folder. Only a CMakeLists.txt with a project() call counts; the
// file can exist in a multi-app layout for other purposes.
func isSingleAppRepo(projectDir string) bool {
	f, err := os.Open(filepath.Join(projectDir, "app", "CMakeLists.txt"))
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if cmakeProjectPattern.MatchString(scanner.Text()) {
			return true
		}
	}
	return false
}

// target is an app or sample flattened into the common shape the job loop
// works with.
type target struct {
	name       string
	subdir     string
	boards     []string
	buildTypes []string
}

func buildTargets(d *models.Descriptor, projectDir string, singleApp bool) ([]target, error) {
	var targets []target

	for _, app := range d.Apps {
		if singleApp {
			if len(d.Apps) > 1 {
				return nil, fmt.Errorf(
					"%s declares %d apps, but the app folder holds a single application",
					config.DescriptorName, len(d.Apps))
			}
		} else if _, err := os.Stat(filepath.Join(projectDir, "app", app.Name)); err != nil {
			return nil, fmt.Errorf("app %q was not found in the app folder", app.Name)
		}

		// Apps carry the release build type implicitly. Apps without any
		// declared build types build once, with no type qualifier at all.
		var types []string
		if len(app.BuildTypes) > 0 {
			for _, bt := range app.BuildTypes {
				types = append(types, bt.Type)
			}
			types = append(types, config.ReleaseBuildType)
		} else {
			types = []string{""}
		}

		targets = append(targets, target{
			name:       app.Name,
			subdir:     "apps",
			boards:     app.WestBoards,
			buildTypes: types,
		})
	}

	for _, sample := range d.Samples {
		if _, err := os.Stat(filepath.Join(projectDir, "samples", sample.Name)); err != nil {
			return nil, fmt.Errorf("sample %q was not found in the samples folder", sample.Name)
		}
		targets = append(targets, target{
			name:       sample.Name,
			subdir:     "samples",
			boards:     sample.WestBoards,
			buildTypes: []string{""},
		})
	}

	return targets, nil
}

func buildJobs(d *models.Descriptor, projectDir, releaseDir string, v Version, singleApp bool) ([]job, error) {
	targets, err := buildTargets(d, projectDir, singleApp)
	if err != nil {
		return nil, err
	}

	boardsDir := filepath.Join(projectDir, "boards")

	var jobs []job
	for _, t := range targets {
		for _, declaredBoard := range t.boards {
			for _, board := range FindBoardRevisions(boardsDir, declaredBoard) {
				for _, buildType := range t.buildTypes {
					jobs = append(jobs, job{
						subdir:       t.subdir,
						srcDir:       sourceDir(t.subdir, t.name, singleApp),
						board:        board,
						buildType:    buildType,
						artifactName: ArtifactName(t.name, board, v, buildType),
						artifactDest: artifactDest(releaseDir, t.subdir, t.name, board, buildType),
					})
				}
			}
		}
	}
	return jobs, nil
}

var tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

func jobSummary(jobs []job) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("Name", "Type", "West board", "Build type")

	for _, j := range jobs {
		jobType := "sample"
		buildType := "/"
		if j.subdir == "apps" {
			jobType = "app"
			buildType = j.buildType
		}
		t.Row(filepath.Base(j.srcDir), jobType, j.board, buildType)
	}

	return t.Render()
}

// Run executes the release pipeline: one west build per job, binaries moved
// and renamed into the release tree, one zip per app build type plus one for
// all samples. Jobs run strictly in order; the first failing build aborts
// the run.
func Run(ctx context.Context, ws *workspace.Workspace, opts Options) error {
	descriptor, err := ws.RequireDescriptor()
	if err != nil {
		return err
	}

	releaseDir := ws.ReleaseDir()
	if opts.DryRun {
		releaseDir = filepath.Join(ws.ProjectDir, "release_dry_run")
	}

	for _, dir := range []string{ws.ReleaseDir(), filepath.Join(ws.ProjectDir, "release_dry_run")} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}

	version, err := ResolveVersion(ctx, ws.Runner, ws.ProjectDir)
	if err != nil {
		return err
	}

	singleApp := isSingleAppRepo(ws.ProjectDir)

	jobs, err := buildJobs(descriptor, ws.ProjectDir, releaseDir, version, singleApp)
	if err != nil {
		return err
	}

	fmt.Println(jobSummary(jobs))
	ws.Log.Info("starting jobs", "count", len(jobs), "version", version.Tag+version.hashSuffix())

	buildDir := filepath.Join(ws.ProjectDir, "build")

	for _, j := range jobs {
		if err := os.RemoveAll(buildDir); err != nil {
			return fmt.Errorf("removing %s: %w", buildDir, err)
		}

		if err := runJob(ctx, ws, j, opts); err != nil {
			return err
		}

		if err := moveBuildArtifacts(buildDir, j, opts.DryRun); err != nil {
			return err
		}
	}

	return zipReleaseFolders(descriptor, releaseDir, version)
}

func runJob(ctx context.Context, ws *workspace.Workspace, j job, opts Options) error {
	args, _, err := buildtype.Resolve(buildtype.Request{
		Descriptor: ws.Descriptor,
		BuildType:  j.buildType,
		Board:      j.board,
		SourceDir:  j.srcDir,
		Cwd:        ws.ProjectDir,
		ProjectDir: ws.ProjectDir,
	})
	if err != nil {
		return err
	}

	westArgs := []string{"build", "-b", j.board, j.srcDir}
	if len(args) > 0 {
		westArgs = append(westArgs, "--")
		westArgs = append(westArgs, args...)
	}

	command := "west " + strings.Join(westArgs, " ")

	if opts.DryRun {
		ws.Log.Info("dry running", "cmd", command)
		return nil
	}

	ws.Log.Info("running", "cmd", command)

	if opts.Verbose {
		if err := ws.Runner.Run(ctx, ws.ProjectDir, "west", westArgs...); err != nil {
			return fmt.Errorf("build failed for %s on %s: %w", j.srcDir, j.board, err)
		}
		return nil
	}

	out, err := ws.Runner.Output(ctx, ws.ProjectDir, "west", westArgs...)
	if err != nil {
		// The captured log is the only place the cause can be found.
		fmt.Fprintln(os.Stderr, out)
		return fmt.Errorf("build failed for %s on %s: %w", j.srcDir, j.board, err)
	}
	return nil
}

func moveBuildArtifacts(buildDir string, j job, dryRun bool) error {
	if err := os.MkdirAll(j.artifactDest, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", j.artifactDest, err)
	}

	binaries, err := CollectBinaries(buildDir, dryRun)
	if err != nil {
		return err
	}

	for _, binary := range binaries {
		if dryRun {
			if err := os.MkdirAll(filepath.Dir(binary), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(binary, nil, 0644); err != nil {
				return err
			}
		}
		if !fileExists(binary) {
			continue
		}

		ext := filepath.Ext(binary)
		dst := filepath.Join(j.artifactDest, j.artifactName+ext)
		if err := copyFile(binary, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}

func zipReleaseFolders(d *models.Descriptor, releaseDir string, v Version) error {
	type zipTarget struct {
		name   string
		folder string
	}
	var targets []zipTarget

	samplesFolder := filepath.Join(releaseDir, "samples")
	if _, err := os.Stat(samplesFolder); err == nil {
		targets = append(targets, zipTarget{
			name:   "samples-" + v.Tag + v.hashSuffix(),
			folder: samplesFolder,
		})
	}

	for _, app := range d.Apps {
		if len(app.BuildTypes) == 0 {
			targets = append(targets, zipTarget{
				name:   app.Name + "-" + v.Tag + v.hashSuffix(),
				folder: filepath.Join(releaseDir, "apps", app.Name),
			})
			continue
		}

		var types []string
		for _, bt := range app.BuildTypes {
			types = append(types, bt.Type)
		}
		types = append(types, config.ReleaseBuildType)

		for _, buildType := range types {
			suffix := ""
			if buildType != config.ReleaseBuildType {
				suffix = "-" + buildType
			}
			targets = append(targets, zipTarget{
				name:   app.Name + "-" + v.Tag + suffix + v.hashSuffix(),
				folder: filepath.Join(releaseDir, "apps", app.Name, buildType),
			})
		}
	}

	for _, t := range targets {
		if _, err := os.Stat(t.folder); err != nil {
			continue
		}
		if err := pack.ZipDirectory(t.folder, filepath.Join(releaseDir, t.name+".zip")); err != nil {
			return err
		}
	}
	return nil
}
