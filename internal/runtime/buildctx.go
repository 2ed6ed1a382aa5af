package runtime

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// dockerfileTemplate is the whole build recipe: course environments are the
// declared base image plus the managed-by label. Course-specific provisioning
// happens through the course's setup script, not at image build time.
const dockerfileTemplate = `FROM %s
LABEL %s=%q
`

// buildContext packs a generated Dockerfile into the gzipped tar stream the
// engine's build endpoint expects.
func buildContext(baseImage string) (io.Reader, error) {
	dockerfile := fmt.Sprintf(dockerfileTemplate, baseImage, ManagedLabelKey, ManagedLabelValue)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{
		Name: "Dockerfile",
		Mode: 0o644,
		Size: int64(len(dockerfile)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("failed to write build context: %w", err)
	}
	if _, err := tw.Write([]byte(dockerfile)); err != nil {
		return nil, fmt.Errorf("failed to write build context: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish build context: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress build context: %w", err)
	}
	return &buf, nil
}
