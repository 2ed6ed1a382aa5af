package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
	"github.com/BrownCS/common-course-containers/internal/runtime"
)

var (
	cleanImages  bool
	cleanNetwork bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove CCC-managed containers (and optionally images and the network)",
	Long: `Remove every container CCC created. Course checkouts under the courses
directory are never touched; deleting those is always a manual action.`,
	Args: exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		rt, err := runtime.NewDocker()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := rt.RemoveContainers(ctx); err != nil {
			return err
		}
		if cleanImages {
			if err := rt.RemoveImages(ctx); err != nil {
				return err
			}
		}
		if cleanNetwork {
			if err := rt.RemoveNetwork(ctx, cfg.NetworkName()); err != nil {
				return err
			}
		}
		logger.Info("done\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanImages, "images", false, "also remove CCC-built images")
	cleanCmd.Flags().BoolVar(&cleanNetwork, "network", false, "also remove the CCC network")
}
