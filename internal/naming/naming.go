// Package naming derives container and image identities from a course's
// declared base image. The derivation is pure so that two courses sharing a
// base image share one container, and courses with distinct base images
// never collide.
package naming

import (
	"strings"

	"github.com/BrownCS/common-course-containers/internal/registry"
)

// Identity is the derived (image, container) pair for a course. It is
// computed, never stored.
type Identity struct {
	Image     string `json:"image"`
	Container string `json:"container"`
}

// Normalize maps a declared base image to its identity namespace: the
// "default" sentinel (or an empty value) stays "default", anything else has
// every ':' replaced with '-' so it is usable in image tags and container
// names.
func Normalize(baseImage string) string {
	if baseImage == "" || baseImage == registry.DefaultBaseImage {
		return registry.DefaultBaseImage
	}
	return strings.ReplaceAll(baseImage, ":", "-")
}

// ForBase returns the identity for a declared base image under the given
// image prefix.
func ForBase(prefix, baseImage string) Identity {
	n := Normalize(baseImage)
	return Identity{
		Image:     prefix + ":" + n,
		Container: prefix + "-" + n,
	}
}

// Resolver resolves course IDs to identities via the registry.
type Resolver struct {
	reg    *registry.Registry
	prefix string
}

func NewResolver(reg *registry.Registry, prefix string) *Resolver {
	return &Resolver{reg: reg, prefix: prefix}
}

// Resolve returns the identity for a course. The "default" pseudo-course
// bypasses registry lookup entirely and always maps to the default identity.
func (r *Resolver) Resolve(courseID string) (Identity, error) {
	if courseID == registry.DefaultCourseID {
		return ForBase(r.prefix, registry.DefaultBaseImage), nil
	}
	entry, err := r.reg.Lookup(courseID)
	if err != nil {
		return Identity{}, err
	}
	return ForBase(r.prefix, entry.BaseImage), nil
}

// BaseImageFor returns the concrete image a course environment builds FROM:
// the course's declared base image, or defaultBase when the course uses the
// sentinel.
func BaseImageFor(declared, defaultBase string) string {
	if declared == "" || declared == registry.DefaultBaseImage {
		return defaultBase
	}
	return declared
}
