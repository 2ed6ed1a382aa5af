// Package vcs wraps the version-control operations CCC needs behind a small
// client interface so the install engine is testable without network access.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
)

var (
	// ErrNotRepository indicates a directory lacks version-control metadata
	ErrNotRepository = errors.New("not a git checkout")
	// ErrUpdateConflict indicates a pull could not fast-forward; merge
	// resolution is out of scope and surfaces as a fatal error
	ErrUpdateConflict = errors.New("update is not a fast-forward")
)

// Revision identifies a checked-out commit.
type Revision struct {
	Hash string
	When time.Time
}

// Client is the capability surface the install/update engine depends on.
type Client interface {
	Clone(ctx context.Context, url, dir string) error
	Pull(ctx context.Context, dir string) error
	Head(dir string) (Revision, error)
	RemoteURL(dir string) (string, error)
	IsCheckout(dir string) bool
}

// Git implements Client with go-git. Progress from clone and pull goes to
// Progress so long-running transfers are visible.
type Git struct {
	Progress io.Writer
}

func NewGit() *Git {
	return &Git{Progress: os.Stderr}
}

func (g *Git) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Progress: g.Progress,
	})
	if err != nil {
		return fmt.Errorf("clone of %s failed: %w", url, err)
	}
	return nil
}

// Pull fast-forwards dir to the latest remote state. Already up to date is
// success; a non-fast-forward state is ErrUpdateConflict.
func (g *Git) Pull(ctx context.Context, dir string) error {
	repo, err := g.open(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName: git.DefaultRemoteName,
		Progress:   g.Progress,
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return fmt.Errorf("%w: %s", ErrUpdateConflict, dir)
	default:
		return fmt.Errorf("pull in %s failed: %w", dir, err)
	}
}

func (g *Git) Head(dir string) (Revision, error) {
	repo, err := g.open(dir)
	if err != nil {
		return Revision{}, err
	}
	ref, err := repo.Head()
	if err != nil {
		return Revision{}, fmt.Errorf("failed to resolve HEAD in %s: %w", dir, err)
	}
	rev := Revision{Hash: ref.Hash().String()}
	if commit, err := repo.CommitObject(ref.Hash()); err == nil {
		rev.When = commit.Committer.When
	}
	return rev, nil
}

func (g *Git) RemoteURL(dir string) (string, error) {
	repo, err := g.open(dir)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return "", fmt.Errorf("no %s remote in %s: %w", git.DefaultRemoteName, dir, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s in %s has no URL", git.DefaultRemoteName, dir)
	}
	return urls[0], nil
}

func (g *Git) IsCheckout(dir string) bool {
	_, err := git.PlainOpen(dir)
	return err == nil
}

func (g *Git) open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	return repo, nil
}
