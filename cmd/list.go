package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/registry"
)

var listJSON bool

type listOutput struct {
	Courses []listCourse `json:"courses"`
}

type listCourse struct {
	registry.Entry
	InstalledAt string `json:"installed_at,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all known courses",
	Long: `List every course in the registry, marking the ones installed under the
courses directory.

Examples:
  ccc list          # table of courses and install locations
  ccc list --json   # machine-readable output for piping`,
	Args: exactArgs(0),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	entries, err := openRegistry().List()
	if err != nil {
		return err
	}

	// Install locations are best-effort: listing works before `ccc init`,
	// but a broken config file is still an error, not a silent omission.
	installedBy := map[string]string{}
	cfg, err := config.Open()
	if err != nil {
		return err
	}
	if engine, err := newEngine(cfg); err == nil {
		installs, err := engine.Installations()
		if err != nil {
			return err
		}
		for _, inst := range installs {
			if inst.CourseID != "" {
				installedBy[inst.CourseID] = inst.Dir
			}
		}
	} else if !errors.Is(err, config.ErrNotConfigured) {
		return err
	}

	if listJSON {
		out := listOutput{Courses: make([]listCourse, 0, len(entries))}
		for _, e := range entries {
			out.Courses = append(out.Courses, listCourse{Entry: e, InstalledAt: installedBy[e.ID]})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Println("No courses in the registry (run 'ccc refresh' to fetch the course list)")
		return nil
	}
	printCourseTable(os.Stdout, entries, installedBy)
	return nil
}
