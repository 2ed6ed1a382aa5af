package registry

// DefaultCourseID is the pseudo-course representing the shared base
// environment. It has no repository and is never cloned.
const DefaultCourseID = "default"

// DefaultBaseImage is the sentinel base-image value meaning "use the
// configured default image".
const DefaultBaseImage = "default"

// Entry is one row of the course registry.
type Entry struct {
	ID        string `json:"id"`         // unique course identifier, e.g. "csci-0300"
	URL       string `json:"url"`        // source repository (empty only for the default sentinel)
	Name      string `json:"name"`       // human-readable course name
	Term      string `json:"term"`       // e.g. "Fall24"
	BaseImage string `json:"base_image"` // base container image; "default" when unset
}
