package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/course"
	"github.com/BrownCS/common-course-containers/internal/paths"
	"github.com/BrownCS/common-course-containers/internal/registry"
	"github.com/BrownCS/common-course-containers/internal/vcs"
)

func openRegistry() *registry.Registry {
	return registry.New(paths.RegistryFile())
}

func newEngine(cfg *config.Config) (*course.Engine, error) {
	coursesDir, err := cfg.CoursesDir()
	if err != nil {
		return nil, err
	}
	return course.NewEngine(openRegistry(), vcs.NewGit(), coursesDir), nil
}

// withCourseListing decorates a registry miss with the full course listing,
// so "not found" is never a dead end.
func withCourseListing(err error) error {
	if !errors.Is(err, registry.ErrCourseNotFound) {
		return err
	}
	entries, listErr := openRegistry().List()
	if listErr != nil || len(entries) == 0 {
		return fmt.Errorf("%w (registry is empty; run 'ccc refresh')", err)
	}
	fmt.Fprintln(os.Stderr, "Available courses:")
	printCourseTable(os.Stderr, entries, nil)
	return err
}

func printCourseTable(out *os.File, entries []registry.Entry, installed map[string]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if installed != nil {
		fmt.Fprintln(w, "ID\tNAME\tTERM\tBASE IMAGE\tINSTALLED")
	} else {
		fmt.Fprintln(w, "ID\tNAME\tTERM\tBASE IMAGE")
	}
	for _, e := range entries {
		if installed != nil {
			dir := installed[e.ID]
			if dir == "" {
				dir = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Term, e.BaseImage, dir)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Term, e.BaseImage)
		}
	}
	_ = w.Flush()
}
