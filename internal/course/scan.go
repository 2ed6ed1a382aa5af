package course

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BrownCS/common-course-containers/internal/registry"
)

// Installation is one course checkout under the courses directory. The
// remote URL and revision come from the checkout's own version-control
// metadata; nothing is tracked in a separate state file.
type Installation struct {
	CourseID  string    `json:"course_id,omitempty"` // empty when the checkout matches no registry row
	Dir       string    `json:"dir"`
	RemoteURL string    `json:"remote_url"`
	Revision  string    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Installations scans the courses directory and maps every checkout back to
// its registry entry by remote URL. Non-checkout directories are ignored.
func (e *Engine) Installations() ([]Installation, error) {
	dirents, err := os.ReadDir(e.coursesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read courses directory %s: %w", e.coursesDir, err)
	}

	entries, err := e.reg.List()
	if err != nil {
		return nil, err
	}
	courseByURL := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.URL != "" {
			courseByURL[entry.URL] = entry.ID
		}
	}

	var installs []Installation
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		dir := filepath.Join(e.coursesDir, d.Name())
		if !e.git.IsCheckout(dir) {
			continue
		}
		remote, err := e.git.RemoteURL(dir)
		if err != nil {
			continue
		}
		inst := Installation{
			CourseID:  courseByURL[remote],
			Dir:       dir,
			RemoteURL: remote,
		}
		if rev, err := e.git.Head(dir); err == nil {
			inst.Revision = rev.Hash
			inst.UpdatedAt = rev.When
		}
		installs = append(installs, inst)
	}

	sort.Slice(installs, func(i, j int) bool { return installs[i].Dir < installs[j].Dir })
	return installs, nil
}

// find returns the installation for a registry entry, or nil when the course
// has never been cloned here.
func (e *Engine) find(entry registry.Entry) (*Installation, error) {
	installs, err := e.Installations()
	if err != nil {
		return nil, err
	}
	for i := range installs {
		if installs[i].RemoteURL == entry.URL {
			return &installs[i], nil
		}
	}
	return nil, nil
}
