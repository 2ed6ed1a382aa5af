package runtime

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	sdk "github.com/docker/docker/client"

	"github.com/BrownCS/common-course-containers/internal/logger"
)

// apiClient is the subset of the Docker SDK the runtime uses, split out so
// tests can fake the engine.
type apiClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	NetworkList(ctx context.Context, options network.ListOptions) ([]network.Summary, error)
	NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error)
	NetworkRemove(ctx context.Context, networkID string) error
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, options container.ExecStartOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// Docker drives the container engine over the SDK. DOCKER_HOST selects the
// endpoint, so a Podman docker-compatible socket works unchanged.
type Docker struct {
	cli apiClient
}

func NewDocker() (*Docker, error) {
	cli, err := sdk.NewClientWithOpts(
		sdk.FromEnv,
		sdk.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}
	return &Docker{cli: cli}, nil
}

func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v (is docker or podman running?)", ErrRuntimeUnavailable, err)
	}
	return nil
}

func (d *Docker) EnsureNetwork(ctx context.Context, name string) error {
	networks, err := d.cli.NetworkList(ctx, network.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}
	for _, n := range networks {
		if n.Name == name {
			return nil
		}
	}
	logger.Debug("creating network %s\n", name)
	_, err = d.cli.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
		Labels: map[string]string{ManagedLabelKey: ManagedLabelValue},
	})
	if err != nil {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return nil
}

func (d *Docker) HasImage(ctx context.Context, tag string) (bool, error) {
	images, err := d.cli.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", tag)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list images: %w", err)
	}
	return len(images) > 0, nil
}

func (d *Docker) BuildImage(ctx context.Context, baseImage, tag string) error {
	if ok, err := d.HasImage(ctx, tag); err != nil {
		return err
	} else if ok {
		logger.Debug("image %s already exists; skipping build\n", tag)
		return nil
	}

	buildCtx, err := buildContext(baseImage)
	if err != nil {
		return err
	}
	logger.Info("building %s from %s\n", tag, baseImage)
	resp, err := d.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:        []string{tag},
		Remove:      true,
		ForceRemove: true,
		PullParent:  true,
		Labels:      map[string]string{ManagedLabelKey: ManagedLabelValue},
	})
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", tag, err)
	}
	defer resp.Body.Close()
	return drainBuildOutput(resp.Body, tag)
}

// drainBuildOutput consumes the engine's JSON message stream, echoing
// progress at debug level and surfacing the first error message verbatim.
func drainBuildOutput(body io.Reader, tag string) error {
	type buildMessage struct {
		Stream string `json:"stream"`
		Error  string `json:"error"`
	}
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg buildMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return fmt.Errorf("build of %s failed: %s", tag, msg.Error)
		}
		if s := strings.TrimRight(msg.Stream, "\n"); s != "" {
			logger.Debug("%s\n", s)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("build output stream for %s broke: %w", tag, err)
	}
	return nil
}

func (d *Docker) HasContainer(ctx context.Context, name string) (bool, error) {
	id, err := d.findContainer(ctx, name)
	return id != "", err
}

// findContainer returns the ID of the container with exactly this name, or
// "" when none exists. The name filter is a substring match, hence the exact
// comparison ("/name" is how the engine reports names).
func (d *Docker) findContainer(ctx context.Context, name string) (string, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list containers: %w", err)
	}
	for _, c := range containers {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == name {
				return c.ID, nil
			}
		}
	}
	return "", nil
}

func (d *Docker) StartOrCreate(ctx context.Context, opts StartOptions) error {
	id, err := d.findContainer(ctx, opts.Name)
	if err != nil {
		return err
	}
	if id == "" {
		cfg := &container.Config{
			Image:      opts.Image,
			Cmd:        []string{"sleep", "infinity"},
			WorkingDir: opts.MountPath,
			Env:        forwardedEnv(),
			Labels:     map[string]string{ManagedLabelKey: ManagedLabelValue},
		}
		host := &container.HostConfig{
			Binds:       append([]string{opts.CoursesDir + ":" + opts.MountPath}, forwardedBinds()...),
			NetworkMode: container.NetworkMode(opts.Network),
		}
		if opts.Userns != "" {
			host.UsernsMode = container.UsernsMode(opts.Userns)
		}
		platform, err := parsePlatform(opts.Platform)
		if err != nil {
			return err
		}
		logger.Debug("creating container %s from %s\n", opts.Name, opts.Image)
		created, err := d.cli.ContainerCreate(ctx, cfg, host, nil, platform, opts.Name)
		if err != nil {
			return fmt.Errorf("failed to create container %s: %w", opts.Name, err)
		}
		id = created.ID
	}
	if err := d.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", opts.Name, err)
	}
	return nil
}

// forwardedEnv and forwardedBinds assemble the optional X11 and SSH-agent
// forwarding flags based on host OS detection. X11 pass-through only makes
// sense on Linux where the socket directory can be bind-mounted.
func forwardedEnv() []string {
	var env []string
	if goruntime.GOOS == "linux" {
		if display := os.Getenv("DISPLAY"); display != "" {
			env = append(env, "DISPLAY="+display)
		}
	}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" && goruntime.GOOS == "linux" {
		env = append(env, "SSH_AUTH_SOCK="+sock)
	}
	return env
}

func forwardedBinds() []string {
	var binds []string
	if goruntime.GOOS != "linux" {
		return nil
	}
	if os.Getenv("DISPLAY") != "" {
		if _, err := os.Stat("/tmp/.X11-unix"); err == nil {
			binds = append(binds, "/tmp/.X11-unix:/tmp/.X11-unix")
		}
	}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		binds = append(binds, sock+":"+sock)
	}
	return binds
}

func parsePlatform(s string) (*ocispec.Platform, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid platform %q (want os/arch, e.g. linux/amd64)", s)
	}
	return &ocispec.Platform{OS: parts[0], Architecture: parts[1]}, nil
}

// AttachShell runs an interactive login shell in the named container,
// wiring it to our terminal.
func (d *Docker) AttachShell(ctx context.Context, name string) error {
	id, err := d.findContainer(ctx, name)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("container %s does not exist", name)
	}

	created, err := d.cli.ContainerExecCreate(ctx, id, container.ExecOptions{
		Cmd:          []string{"/bin/bash", "-l"},
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          true,
	})
	if err != nil {
		return fmt.Errorf("failed to create shell in %s: %w", name, err)
	}

	attach, err := d.cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{Tty: true})
	if err != nil {
		return fmt.Errorf("failed to attach to shell in %s: %w", name, err)
	}
	defer attach.Close()

	go func() {
		_, _ = io.Copy(attach.Conn, os.Stdin)
	}()
	_, _ = io.Copy(os.Stdout, attach.Reader)

	inspect, err := d.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("failed to inspect shell in %s: %w", name, err)
	}
	if inspect.ExitCode != 0 {
		return fmt.Errorf("shell in %s exited with status %d", name, inspect.ExitCode)
	}
	return nil
}

func (d *Docker) StopContainer(ctx context.Context, name string) error {
	id, err := d.findContainer(ctx, name)
	if err != nil {
		return err
	}
	if id == "" {
		logger.Warn("container %s does not exist; nothing to stop\n", name)
		return nil
	}
	if err := d.cli.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}
	return nil
}

// RemoveContainers force-removes every container CCC created, identified by
// the managed-by label.
func (d *Docker) RemoveContainers(ctx context.Context) error {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: managedFilter(),
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}
	for _, c := range containers {
		logger.Info("removing container %s\n", displayName(c))
		if err := d.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("failed to remove container %s: %w", displayName(c), err)
		}
	}
	return nil
}

// RemoveImages force-removes every image CCC built.
func (d *Docker) RemoveImages(ctx context.Context) error {
	images, err := d.cli.ImageList(ctx, image.ListOptions{
		All:     true,
		Filters: managedFilter(),
	})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	for _, img := range images {
		logger.Info("removing image %s\n", img.ID)
		if _, err := d.cli.ImageRemove(ctx, img.ID, image.RemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("failed to remove image %s: %w", img.ID, err)
		}
	}
	return nil
}

func (d *Docker) RemoveNetwork(ctx context.Context, name string) error {
	networks, err := d.cli.NetworkList(ctx, network.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}
	for _, n := range networks {
		if n.Name != name {
			continue
		}
		logger.Info("removing network %s\n", name)
		if err := d.cli.NetworkRemove(ctx, n.ID); err != nil {
			return fmt.Errorf("failed to remove network %s: %w", name, err)
		}
	}
	return nil
}

func managedFilter() filters.Args {
	return filters.NewArgs(filters.Arg("label", ManagedLabelKey+"="+ManagedLabelValue))
}

func displayName(c container.Summary) string {
	if len(c.Names) > 0 {
		return strings.TrimPrefix(c.Names[0], "/")
	}
	return c.ID
}
