package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/course"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed courses and their revisions",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		installs, err := engine.Installations()
		if err != nil {
			return err
		}

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string][]course.Installation{"installations": installs})
		}

		if len(installs) == 0 {
			fmt.Println("No courses installed")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COURSE\tDIR\tREVISION\tUPDATED")
		for _, inst := range installs {
			id := inst.CourseID
			if id == "" {
				id = "-"
			}
			rev := inst.Revision
			if len(rev) > 8 {
				rev = rev[:8]
			}
			updated := "-"
			if !inst.UpdatedAt.IsZero() {
				updated = humanize.Time(inst.UpdatedAt)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, inst.Dir, rev, updated)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output JSON")
}
