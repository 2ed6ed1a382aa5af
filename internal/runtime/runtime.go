// Package runtime wraps the external container engine (Docker, or Podman
// through its Docker-compatible socket). Its only logic is idempotence
// (query before create) and flag assembly; engine failures are fatal and
// reported verbatim, never retried.
package runtime

import (
	"context"
	"errors"
)

// ErrRuntimeUnavailable indicates the container engine cannot be reached
var ErrRuntimeUnavailable = errors.New("container engine unavailable")

// Everything CCC creates carries this label so removal can filter on it.
const (
	ManagedLabelKey   = "managed-by"
	ManagedLabelValue = "ccc"
)

// StartOptions describes the container to start or create for a course
// environment.
type StartOptions struct {
	Name       string // container name from the resolver
	Image      string // image tag from the resolver
	Network    string
	CoursesDir string // host directory bind-mounted into the container
	MountPath  string // mount destination inside the container
	Platform   string // "os/arch", empty for the engine default
	Userns     string // user-namespace mode, empty for the engine default
}

// Runtime is the capability surface the CLI depends on.
type Runtime interface {
	Ping(ctx context.Context) error
	EnsureNetwork(ctx context.Context, name string) error
	HasImage(ctx context.Context, tag string) (bool, error)
	// BuildImage builds tag from baseImage; it is idempotent and skips the
	// build when the tag already exists.
	BuildImage(ctx context.Context, baseImage, tag string) error
	HasContainer(ctx context.Context, name string) (bool, error)
	StartOrCreate(ctx context.Context, opts StartOptions) error
	AttachShell(ctx context.Context, name string) error
	StopContainer(ctx context.Context, name string) error
	RemoveContainers(ctx context.Context) error
	RemoveImages(ctx context.Context) error
	RemoveNetwork(ctx context.Context, name string) error
}
