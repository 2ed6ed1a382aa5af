// Package registry reads the flat comma-separated course list. The registry
// is immutable input: it is read fresh on every call and only ever replaced
// wholesale by fetching a new copy from its origin.
package registry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrCourseNotFound indicates the course ID has no registry row
var ErrCourseNotFound = errors.New("course not found")

// Registry looks up courses in a CSV file on disk.
type Registry struct {
	path string
}

func New(path string) *Registry {
	return &Registry{path: path}
}

// Path returns the backing file location.
func (r *Registry) Path() string { return r.path }

// List returns every course in source order. A missing registry file yields
// an empty list, not an error.
func (r *Registry) List() ([]Entry, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open registry %s: %w", r.path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Lookup returns the entry whose ID matches exactly, or ErrCourseNotFound.
func (r *Registry) Lookup(id string) (Entry, error) {
	entries, err := r.List()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrCourseNotFound, id)
}

// Parse reads registry rows: id,url,name,term[,base_image]. Lines starting
// with '#' and blank lines are skipped; there is no quoting or escaping
// support. Rows with fewer than four fields are skipped. An absent or empty
// base_image defaults to the "default" sentinel.
func Parse(rd io.Reader) ([]Entry, error) {
	cr := csv.NewReader(rd)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var entries []Entry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed registry line: %w", err)
		}
		if len(record) < 4 {
			continue
		}
		id := strings.TrimSpace(record[0])
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		base := DefaultBaseImage
		if len(record) >= 5 && strings.TrimSpace(record[4]) != "" {
			base = strings.TrimSpace(record[4])
		}
		entries = append(entries, Entry{
			ID:        id,
			URL:       strings.TrimSpace(record[1]),
			Name:      strings.TrimSpace(record[2]),
			Term:      strings.TrimSpace(record[3]),
			BaseImage: base,
		})
	}
	return entries, nil
}
