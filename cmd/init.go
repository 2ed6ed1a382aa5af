package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
	"github.com/BrownCS/common-course-containers/internal/paths"
)

var initDir string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Establish the courses directory",
	Long: `Create the courses directory (default: ~/courses) and record it in the
CCC configuration. Run this once before setting up any course.`,
	Args: exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(initDir, 0o755); err != nil {
			return fmt.Errorf("failed to create courses directory %s: %w", initDir, err)
		}
		if err := cfg.SetCoursesDir(initDir); err != nil {
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
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initDir, "dir", paths.DefaultCoursesDir(), "courses directory to create and record")
}
