package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
)

var setupCmd = &cobra.Command{
	Use:   "setup <course>",
	Short: "Install a course under the courses directory",
	Long: `Clone the course repository and run its setup script. When the course is
already installed, pull the latest changes and run the setup script again.`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		if err := engine.Setup(cmd.Context(), args[0]); err != nil {
			return withCourseListing(err)
		}
		logger.Info("%s is ready; run 'ccc start %s' to open its environment\n", args[0], args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
