package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the current CCC configuration",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		settings := cfg.Settings()
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, k := range keys {
			v := settings[k]
			if v == "" {
				v = "-"
			}
			fmt.Fprintf(w, "%s\t%s\n", k, v)
		}
		return w.Flush()
	},
}

var setCoursesDirCmd = &cobra.Command{
	Use:   "set-courses-dir <path>",
	Short: "Record an existing directory as the courses directory",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		if err := cfg.SetCoursesDir(args[0]); err != nil {
			return err
		}
		dir, err := cfg.CoursesDir()
		if err != nil {
			return err
		}
		logger.Info("courses directory set to %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(setCoursesDirCmd)
}
