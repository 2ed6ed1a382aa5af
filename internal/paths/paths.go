package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "ccc")
}

func ConfigFile() string   { return filepath.Join(ConfigDir(), "config.env") }
func RegistryFile() string { return filepath.Join(ConfigDir(), "courses.csv") }

// DefaultCoursesDir is where `ccc init` puts course checkouts unless told
// otherwise.
func DefaultCoursesDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "courses")
}

// Unique returns path if nothing exists there, otherwise the first free
// numeric-suffix variant (path-1, path-2, ...). The first free integer wins;
// freed names are never reused within a run.
func Unique(path string) string {
	if !exists(path) {
		return path
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", path, i)
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
