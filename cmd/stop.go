package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
	"github.com/BrownCS/common-course-containers/internal/naming"
	"github.com/BrownCS/common-course-containers/internal/registry"
	"github.com/BrownCS/common-course-containers/internal/runtime"
)

var stopCmd = &cobra.Command{
	Use:   "stop [course]",
	Short: "Stop a course environment's container",
	Args:  maxArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID := registry.DefaultCourseID
		if len(args) == 1 {
			courseID = args[0]
		}

		cfg, err := config.Open()
		if err != nil {
			return err
		}
		resolver := naming.NewResolver(openRegistry(), cfg.ImagePrefix())
		identity, err := resolver.Resolve(courseID)
		if err != nil {
			return withCourseListing(err)
		}

		rt, err := runtime.NewDocker()
		if err != nil {
			return err
		}
		if err := rt.StopContainer(cmd.Context(), identity.Container); err != nil {
			return err
		}
		logger.Info("stopped %s\n", identity.Container)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
