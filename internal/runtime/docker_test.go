package runtime

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// fakeAPI fakes the engine: canned list responses, recorded mutations.
type fakeAPI struct {
	networks   []network.Summary
	images     []image.Summary
	containers []container.Summary

	buildOutput string

	createdNetworks   []string
	builtTags         []string
	createdContainers []string
	startedContainers []string
	removedContainers []string
	removedImages     []string
	removedNetworks   []string
}

func (f *fakeAPI) Ping(ctx context.Context) (types.Ping, error) { return types.Ping{}, nil }

func (f *fakeAPI) NetworkList(ctx context.Context, options network.ListOptions) ([]network.Summary, error) {
	return f.networks, nil
}

func (f *fakeAPI) NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error) {
	f.createdNetworks = append(f.createdNetworks, name)
	return network.CreateResponse{ID: "net-" + name}, nil
}

func (f *fakeAPI) NetworkRemove(ctx context.Context, networkID string) error {
	f.removedNetworks = append(f.removedNetworks, networkID)
	return nil
}

func (f *fakeAPI) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	return f.images, nil
}

func (f *fakeAPI) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	f.builtTags = append(f.builtTags, options.Tags...)
	out := f.buildOutput
	if out == "" {
		out = `{"stream":"Successfully built"}` + "\n"
	}
	return types.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(out))}, nil
}

func (f *fakeAPI) ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error) {
	f.removedImages = append(f.removedImages, imageID)
	return nil, nil
}

func (f *fakeAPI) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	return f.containers, nil
}

func (f *fakeAPI) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
	networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	f.createdContainers = append(f.createdContainers, containerName)
	return container.CreateResponse{ID: "ctr-" + containerName}, nil
}

func (f *fakeAPI) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	f.startedContainers = append(f.startedContainers, containerID)
	return nil
}

func (f *fakeAPI) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	return nil
}

func (f *fakeAPI) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	f.removedContainers = append(f.removedContainers, containerID)
	return nil
}

func (f *fakeAPI) ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (types.IDResponse, error) {
	return types.IDResponse{ID: "exec-1"}, nil
}

func (f *fakeAPI) ContainerExecAttach(ctx context.Context, execID string, options container.ExecStartOptions) (types.HijackedResponse, error) {
	return types.HijackedResponse{}, nil
}

func (f *fakeAPI) ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error) {
	return container.ExecInspect{}, nil
}

func TestEnsureNetwork_Idempotent(t *testing.T) {
	api := &fakeAPI{networks: []network.Summary{{Name: "ccc-net", ID: "n1"}}}
	d := &Docker{cli: api}
	if err := d.EnsureNetwork(context.Background(), "ccc-net"); err != nil {
		t.Fatalf("EnsureNetwork failed: %v", err)
	}
	if len(api.createdNetworks) != 0 {
		t.Errorf("Expected no create for existing network, got %v", api.createdNetworks)
	}
}

func TestEnsureNetwork_CreatesWhenAbsent(t *testing.T) {
	// The name filter is substring-based; a near-miss must not count.
	api := &fakeAPI{networks: []network.Summary{{Name: "ccc-net-old", ID: "n1"}}}
	d := &Docker{cli: api}
	if err := d.EnsureNetwork(context.Background(), "ccc-net"); err != nil {
		t.Fatalf("EnsureNetwork failed: %v", err)
	}
	if len(api.createdNetworks) != 1 || api.createdNetworks[0] != "ccc-net" {
		t.Errorf("Expected network ccc-net created, got %v", api.createdNetworks)
	}
}

func TestBuildImage_SkipsExisting(t *testing.T) {
	api := &fakeAPI{images: []image.Summary{{ID: "i1", RepoTags: []string{"ccc:default"}}}}
	d := &Docker{cli: api}
	if err := d.BuildImage(context.Background(), "ubuntu:24.04", "ccc:default"); err != nil {
		t.Fatalf("BuildImage failed: %v", err)
	}
	if len(api.builtTags) != 0 {
		t.Errorf("Expected build skipped for existing image, got %v", api.builtTags)
	}
}

func TestBuildImage_BuildsWhenMissing(t *testing.T) {
	api := &fakeAPI{}
	d := &Docker{cli: api}
	if err := d.BuildImage(context.Background(), "postgres:16", "ccc:postgres-16"); err != nil {
		t.Fatalf("BuildImage failed: %v", err)
	}
	if len(api.builtTags) != 1 || api.builtTags[0] != "ccc:postgres-16" {
		t.Errorf("Expected one build of ccc:postgres-16, got %v", api.builtTags)
	}
}

func TestBuildImage_SurfacesEngineError(t *testing.T) {
	api := &fakeAPI{buildOutput: `{"stream":"Step 1/1"}` + "\n" + `{"error":"no such base image"}` + "\n"}
	d := &Docker{cli: api}
	err := d.BuildImage(context.Background(), "nope:latest", "ccc:nope-latest")
	if err == nil || !strings.Contains(err.Error(), "no such base image") {
		t.Fatalf("Expected engine error surfaced verbatim, got %v", err)
	}
}

func TestStartOrCreate_ExactNameMatch(t *testing.T) {
	// "ccc-default-old" matches the substring filter but is not our
	// container; a fresh one must be created.
	api := &fakeAPI{containers: []container.Summary{{ID: "c1", Names: []string{"/ccc-default-old"}}}}
	d := &Docker{cli: api}
	err := d.StartOrCreate(context.Background(), StartOptions{
		Name:       "ccc-default",
		Image:      "ccc:default",
		Network:    "ccc-net",
		CoursesDir: "/home/user/courses",
		MountPath:  "/home/student/courses",
	})
	if err != nil {
		t.Fatalf("StartOrCreate failed: %v", err)
	}
	if len(api.createdContainers) != 1 || api.createdContainers[0] != "ccc-default" {
		t.Errorf("Expected container ccc-default created, got %v", api.createdContainers)
	}
	if len(api.startedContainers) != 1 {
		t.Errorf("Expected container started, got %v", api.startedContainers)
	}
}

func TestStartOrCreate_ReusesExisting(t *testing.T) {
	api := &fakeAPI{containers: []container.Summary{{ID: "c1", Names: []string{"/ccc-default"}}}}
	d := &Docker{cli: api}
	err := d.StartOrCreate(context.Background(), StartOptions{Name: "ccc-default", Image: "ccc:default"})
	if err != nil {
		t.Fatalf("StartOrCreate failed: %v", err)
	}
	if len(api.createdContainers) != 0 {
		t.Errorf("Expected no create for existing container, got %v", api.createdContainers)
	}
	if len(api.startedContainers) != 1 || api.startedContainers[0] != "c1" {
		t.Errorf("Expected existing container started, got %v", api.startedContainers)
	}
}

func TestStartOrCreate_InvalidPlatform(t *testing.T) {
	d := &Docker{cli: &fakeAPI{}}
	err := d.StartOrCreate(context.Background(), StartOptions{Name: "ccc-default", Platform: "amd64"})
	if err == nil || !strings.Contains(err.Error(), "invalid platform") {
		t.Fatalf("Expected invalid platform error, got %v", err)
	}
}

func TestRemoveContainers(t *testing.T) {
	api := &fakeAPI{containers: []container.Summary{
		{ID: "c1", Names: []string{"/ccc-default"}},
		{ID: "c2", Names: []string{"/ccc-postgres-16"}},
	}}
	d := &Docker{cli: api}
	if err := d.RemoveContainers(context.Background()); err != nil {
		t.Fatalf("RemoveContainers failed: %v", err)
	}
	if len(api.removedContainers) != 2 {
		t.Errorf("Expected 2 removals, got %v", api.removedContainers)
	}
}

func TestRemoveNetwork_ExactMatchOnly(t *testing.T) {
	api := &fakeAPI{networks: []network.Summary{
		{Name: "ccc-net", ID: "n1"},
		{Name: "ccc-net-old", ID: "n2"},
	}}
	d := &Docker{cli: api}
	if err := d.RemoveNetwork(context.Background(), "ccc-net"); err != nil {
		t.Fatalf("RemoveNetwork failed: %v", err)
	}
	if len(api.removedNetworks) != 1 || api.removedNetworks[0] != "n1" {
		t.Errorf("Expected only n1 removed, got %v", api.removedNetworks)
	}
}
