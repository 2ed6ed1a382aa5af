package registry

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/itchyny/gojq"

	"github.com/BrownCS/common-course-containers/internal/limits"
)

// Fetcher retrieves the full course list from the registry origin.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// HTTPFetcher downloads the course list from an update repository URL. The
// origin may publish either the raw CSV registry or a JSON course list.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{URL: url, Client: http.DefaultClient}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid update repo URL %s: %w", f.URL, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry from %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, limits.ErrorBody))
		return nil, fmt.Errorf("registry fetch from %s failed: %s: %s",
			f.URL, resp.Status, bytes.TrimSpace(body))
	}

	// Read one byte past the cap so an oversized payload is detected
	// instead of silently losing its tail.
	data, err := io.ReadAll(io.LimitReader(resp.Body, limits.Registry+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry body: %w", err)
	}
	if len(data) > limits.Registry {
		return nil, fmt.Errorf("registry from %s exceeds the %d byte limit", f.URL, limits.Registry)
	}
	if looksLikeJSON(data) {
		return ParseJSON(data)
	}
	return Parse(bytes.NewReader(data))
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{')
}

// courseQuery projects a JSON course list into registry rows. The origin
// publishes either a bare array or an object with a "courses" array; the
// optional index makes the array case fall through to `.` instead of
// erroring.
var courseQuery = func() *gojq.Code {
	q, err := gojq.Parse(`(.courses? // .)[] | {id, url, name, term, base_image}`)
	if err != nil {
		panic(err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		panic(err)
	}
	return code
}()

// ParseJSON extracts registry entries from a JSON-shaped course list.
func ParseJSON(data []byte) ([]Entry, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed JSON course list: %w", err)
	}

	var entries []Entry
	iter := courseQuery.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("unexpected JSON course list shape: %w", err)
		}
		row, ok := v.(map[string]any)
		if !ok {
			continue
		}
		e := Entry{
			ID:        stringField(row, "id"),
			URL:       stringField(row, "url"),
			Name:      stringField(row, "name"),
			Term:      stringField(row, "term"),
			BaseImage: stringField(row, "base_image"),
		}
		if e.ID == "" {
			continue
		}
		if e.BaseImage == "" {
			e.BaseImage = DefaultBaseImage
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func stringField(row map[string]any, key string) string {
	s, _ := row[key].(string)
	return s
}

// Save atomically replaces the registry file with the given entries,
// writing to a temp file in the same directory and renaming over the target.
func Save(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".courses-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp registry: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := fmt.Fprintln(f, "# id,url,name,term,base_image"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	w := csv.NewWriter(f)
	for _, e := range entries {
		if err := w.Write([]string{e.ID, e.URL, e.Name, e.Term, e.BaseImage}); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write registry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to fsync registry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close registry: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}
