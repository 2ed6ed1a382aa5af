package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
)

var updateCmd = &cobra.Command{
	Use:   "update <course>",
	Short: "Fast-forward an installed course to the latest revision",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		if err := engine.Update(cmd.Context(), args[0]); err != nil {
			return withCourseListing(err)
		}
		logger.Info("%s is up to date\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
