package course

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BrownCS/common-course-containers/internal/registry"
	"github.com/BrownCS/common-course-containers/internal/vcs"
)

// fakeVCS simulates clones by creating directories and tracking their
// remotes in memory.
type fakeVCS struct {
	remotes     map[string]string // dir -> remote URL
	clones      []string
	pulls       []string
	cloneScript string // contents written as setup.sh on clone, "" for none
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{remotes: make(map[string]string)}
}

func (f *fakeVCS) Clone(ctx context.Context, url, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if f.cloneScript != "" {
		script := filepath.Join(dir, SetupScript)
		if err := os.WriteFile(script, []byte(f.cloneScript), 0o644); err != nil {
			return err
		}
	}
	f.remotes[dir] = url
	f.clones = append(f.clones, dir)
	return nil
}

func (f *fakeVCS) Pull(ctx context.Context, dir string) error {
	if _, ok := f.remotes[dir]; !ok {
		return vcs.ErrNotRepository
	}
	f.pulls = append(f.pulls, dir)
	return nil
}

func (f *fakeVCS) Head(dir string) (vcs.Revision, error) {
	if _, ok := f.remotes[dir]; !ok {
		return vcs.Revision{}, vcs.ErrNotRepository
	}
	return vcs.Revision{Hash: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", When: time.Now()}, nil
}

func (f *fakeVCS) RemoteURL(dir string) (string, error) {
	url, ok := f.remotes[dir]
	if !ok {
		return "", vcs.ErrNotRepository
	}
	return url, nil
}

func (f *fakeVCS) IsCheckout(dir string) bool {
	_, ok := f.remotes[dir]
	return ok
}

func newTestEngine(t *testing.T, rows string) (*Engine, *fakeVCS, string) {
	t.Helper()
	regPath := filepath.Join(t.TempDir(), "courses.csv")
	if err := os.WriteFile(regPath, []byte(rows), 0o644); err != nil {
		t.Fatal(err)
	}
	coursesDir := t.TempDir()
	git := newFakeVCS()
	return NewEngine(registry.New(regPath), git, coursesDir), git, coursesDir
}

const testRows = `csci-0300,https://example.com/csci0300.git,Fundamentals,Spring25,
db-course,https://example.com/db.git,DB,Fall24,postgres:16
`

func TestSetup_DefaultIsNoOp(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	if err := engine.Setup(context.Background(), registry.DefaultCourseID); err != nil {
		t.Fatalf("Setup(default) failed: %v", err)
	}
	if len(git.clones) != 0 {
		t.Errorf("Expected no clone for the default course, got %v", git.clones)
	}
	dirents, _ := os.ReadDir(coursesDir)
	if len(dirents) != 0 {
		t.Errorf("Expected courses dir untouched, found %d entries", len(dirents))
	}
}

func TestSetup_RegistryMissCreatesNothing(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, "")
	err := engine.Setup(context.Background(), "unknown-course")
	if !errors.Is(err, registry.ErrCourseNotFound) {
		t.Fatalf("Expected ErrCourseNotFound, got %v", err)
	}
	if len(git.clones) != 0 {
		t.Errorf("Expected no clone on registry miss, got %v", git.clones)
	}
	dirents, _ := os.ReadDir(coursesDir)
	if len(dirents) != 0 {
		t.Errorf("Expected no directory created, found %d entries", len(dirents))
	}
}

func TestSetup_ClonesIntoCanonicalPath(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	if err := engine.Setup(context.Background(), "csci-0300"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	want := filepath.Join(coursesDir, "csci-0300")
	if len(git.clones) != 1 || git.clones[0] != want {
		t.Errorf("Expected clone into %q, got %v", want, git.clones)
	}
}

func TestSetup_CollisionGetsNumericSuffix(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	// Occupy the canonical path and its first suffix with non-checkout dirs.
	for _, name := range []string{"csci-0300", "csci-0300-1"} {
		if err := os.Mkdir(filepath.Join(coursesDir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := engine.Setup(context.Background(), "csci-0300"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	want := filepath.Join(coursesDir, "csci-0300-2")
	if len(git.clones) != 1 || git.clones[0] != want {
		t.Errorf("Expected clone into %q, got %v", want, git.clones)
	}
}

func TestSetup_AlreadyInstalledPullsInsteadOfCloning(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	// Existing checkout under a non-canonical name still counts: matching is
	// by remote URL, not directory name.
	dir := filepath.Join(coursesDir, "fundamentals-renamed")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	git.remotes[dir] = "https://example.com/csci0300.git"

	if err := engine.Setup(context.Background(), "csci-0300"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if len(git.clones) != 0 {
		t.Errorf("Expected no clone for installed course, got %v", git.clones)
	}
	if len(git.pulls) != 1 || git.pulls[0] != dir {
		t.Errorf("Expected pull in %q, got %v", dir, git.pulls)
	}
}

func TestSetup_MissingScriptIsNotAnError(t *testing.T) {
	engine, git, _ := newTestEngine(t, testRows)
	git.cloneScript = "" // clone produces no setup.sh
	if err := engine.Setup(context.Background(), "csci-0300"); err != nil {
		t.Fatalf("Expected missing setup script to be non-fatal, got %v", err)
	}
}

func TestSetup_RunsScriptAndMarksExecutable(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	git.cloneScript = "#!/bin/sh\ntouch provisioned\n"
	if err := engine.Setup(context.Background(), "csci-0300"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	marker := filepath.Join(coursesDir, "csci-0300", "provisioned")
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("Expected setup script to have run (marker %s): %v", marker, err)
	}
}

func TestSetup_FailingScriptIsFatal(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	git.cloneScript = "#!/bin/sh\nexit 3\n"
	err := engine.Setup(context.Background(), "csci-0300")
	if !errors.Is(err, ErrSetupScriptFailed) {
		t.Fatalf("Expected ErrSetupScriptFailed, got %v", err)
	}
	// Partial state stays on disk; no rollback.
	if _, statErr := os.Stat(filepath.Join(coursesDir, "csci-0300")); statErr != nil {
		t.Errorf("Expected cloned directory to remain after script failure: %v", statErr)
	}
}

func TestUpdate_NotInstalled(t *testing.T) {
	engine, _, _ := newTestEngine(t, testRows)
	err := engine.Update(context.Background(), "csci-0300")
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("Expected ErrNotInstalled, got %v", err)
	}
}

func TestUpdate_NotACheckout(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	dir := filepath.Join(coursesDir, "csci-0300")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	sentinel := filepath.Join(dir, "keep")
	if err := os.WriteFile(sentinel, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := engine.Update(context.Background(), "csci-0300")
	if !errors.Is(err, vcs.ErrNotRepository) {
		t.Fatalf("Expected ErrNotRepository, got %v", err)
	}
	if len(git.pulls) != 0 {
		t.Errorf("Expected no pull, got %v", git.pulls)
	}
	if _, statErr := os.Stat(sentinel); statErr != nil {
		t.Errorf("Expected directory contents untouched: %v", statErr)
	}
}

func TestUpdate_PullsWithoutRerunningSetup(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	dir := filepath.Join(coursesDir, "csci-0300")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, SetupScript)
	if err := os.WriteFile(script, []byte("#!/bin/sh\ntouch rerun\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	git.remotes[dir] = "https://example.com/csci0300.git"

	if err := engine.Update(context.Background(), "csci-0300"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(git.pulls) != 1 {
		t.Errorf("Expected one pull, got %v", git.pulls)
	}
	if _, err := os.Stat(filepath.Join(dir, "rerun")); err == nil {
		t.Error("Update must not re-run the setup script")
	}
}

func TestInstallations(t *testing.T) {
	engine, git, coursesDir := newTestEngine(t, testRows)
	known := filepath.Join(coursesDir, "csci-0300")
	stray := filepath.Join(coursesDir, "personal-project")
	plain := filepath.Join(coursesDir, "not-a-repo")
	for _, d := range []string{known, stray, plain} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	git.remotes[known] = "https://example.com/csci0300.git"
	git.remotes[stray] = "https://example.com/unrelated.git"

	installs, err := engine.Installations()
	if err != nil {
		t.Fatalf("Installations failed: %v", err)
	}
	if len(installs) != 2 {
		t.Fatalf("Expected 2 installations (plain dirs skipped), got %d", len(installs))
	}
	byDir := map[string]Installation{}
	for _, inst := range installs {
		byDir[inst.Dir] = inst
	}
	if byDir[known].CourseID != "csci-0300" {
		t.Errorf("Expected %s mapped to csci-0300, got %q", known, byDir[known].CourseID)
	}
	if byDir[stray].CourseID != "" {
		t.Errorf("Expected stray checkout to map to no course, got %q", byDir[stray].CourseID)
	}
}
