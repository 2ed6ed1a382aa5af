// Package course implements the install/update engine: deciding whether a
// course needs cloning, updating, or re-setup, and running the
// course-provided setup script.
//
// The engine assumes single-user, non-concurrent invocation: no lock is
// taken around the clone step, and two simultaneous setups of one course may
// race on the disambiguation suffix. Partial state (a cloned directory whose
// setup script failed) is left on disk, not rolled back.
package course

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/BrownCS/common-course-containers/internal/logger"
	"github.com/BrownCS/common-course-containers/internal/paths"
	"github.com/BrownCS/common-course-containers/internal/registry"
	"github.com/BrownCS/common-course-containers/internal/vcs"
)

var (
	// ErrNotInstalled indicates an update was requested for a course that
	// was never set up
	ErrNotInstalled = errors.New("course is not installed")
	// ErrSetupScriptFailed indicates the course-provided setup script exited
	// non-zero
	ErrSetupScriptFailed = errors.New("setup script failed")
)

// SetupScript is the well-known name of the course-provided setup script.
const SetupScript = "setup.sh"

// Engine orchestrates clone-or-pull plus setup-script execution for courses
// under one courses directory.
type Engine struct {
	reg        *registry.Registry
	git        vcs.Client
	coursesDir string
}

func NewEngine(reg *registry.Registry, git vcs.Client, coursesDir string) *Engine {
	return &Engine{reg: reg, git: git, coursesDir: coursesDir}
}

// Setup installs a course: clone when absent, pull-and-re-setup when already
// installed. The "default" pseudo-course represents the shared base
// environment and needs no repository, so it succeeds immediately.
func (e *Engine) Setup(ctx context.Context, courseID string) error {
	if courseID == registry.DefaultCourseID {
		logger.Info("the default environment has no course repository; nothing to set up\n")
		return nil
	}

	// Registry miss happens before anything touches the courses directory.
	entry, err := e.reg.Lookup(courseID)
	if err != nil {
		return err
	}
	if entry.URL == "" {
		return fmt.Errorf("course %s has no repository URL in the registry", courseID)
	}

	if inst, err := e.find(entry); err != nil {
		return err
	} else if inst != nil {
		logger.Info("%s is already installed at %s; pulling latest changes\n", courseID, inst.Dir)
		if err := e.git.Pull(ctx, inst.Dir); err != nil {
			return err
		}
		return e.runSetupScript(ctx, inst.Dir)
	}

	dir := paths.Unique(filepath.Join(e.coursesDir, entry.ID))
	logger.Info("cloning %s into %s\n", entry.URL, dir)
	if err := e.git.Clone(ctx, entry.URL, dir); err != nil {
		return err
	}
	return e.runSetupScript(ctx, dir)
}

// Update fast-forwards an existing installation. It never re-runs the setup
// script.
func (e *Engine) Update(ctx context.Context, courseID string) error {
	if courseID == registry.DefaultCourseID {
		logger.Info("the default environment has no course repository; nothing to update\n")
		return nil
	}

	entry, err := e.reg.Lookup(courseID)
	if err != nil {
		return err
	}
	inst, err := e.find(entry)
	if err != nil {
		return err
	}
	if inst == nil {
		// A directory with the canonical name but no VCS metadata is a
		// distinct failure from "never installed".
		canonical := filepath.Join(e.coursesDir, entry.ID)
		if fi, err := os.Stat(canonical); err == nil && fi.IsDir() && !e.git.IsCheckout(canonical) {
			return fmt.Errorf("%w: %s", vcs.ErrNotRepository, canonical)
		}
		return fmt.Errorf("%w: %s (run 'ccc setup %s' first)", ErrNotInstalled, courseID, courseID)
	}

	logger.Info("updating %s at %s\n", courseID, inst.Dir)
	return e.git.Pull(ctx, inst.Dir)
}

// runSetupScript runs dir/setup.sh if present, marking it executable first.
// A missing script is a supported course shape: warn and succeed. The script
// inherits our stdout/stderr file descriptors directly, so its diagnostics
// reach the terminal even when we exit immediately after a failure.
func (e *Engine) runSetupScript(ctx context.Context, dir string) error {
	script := filepath.Join(dir, SetupScript)
	fi, err := os.Stat(script)
	if err != nil {
		logger.Warn("no %s found in %s; skipping course setup\n", SetupScript, dir)
		return nil
	}
	if fi.Mode()&0o111 == 0 {
		if err := os.Chmod(script, fi.Mode()|0o755); err != nil {
			return fmt.Errorf("failed to mark %s executable: %w", script, err)
		}
	}

	logger.Info("running %s\n", script)
	cmd := exec.CommandContext(ctx, script)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with status %d", ErrSetupScriptFailed, script, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %s: %v", ErrSetupScriptFailed, script, err)
	}
	return nil
}
