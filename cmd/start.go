package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
	"github.com/BrownCS/common-course-containers/internal/naming"
	"github.com/BrownCS/common-course-containers/internal/registry"
	"github.com/BrownCS/common-course-containers/internal/runtime"
)

var startCmd = &cobra.Command{
	Use:   "start [course]",
	Short: "Open a shell in a course environment",
	Long: `Build the course's container image if needed, start (or create) its
container with the courses directory mounted inside, and attach a shell.
Without an argument, the shared default environment is started.`,
	Args: maxArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID := registry.DefaultCourseID
		if len(args) == 1 {
			courseID = args[0]
		}

		cfg, err := config.Open()
		if err != nil {
			return err
		}
		coursesDir, err := cfg.CoursesDir()
		if err != nil {
			return err
		}

		reg := openRegistry()
		resolver := naming.NewResolver(reg, cfg.ImagePrefix())
		identity, err := resolver.Resolve(courseID)
		if err != nil {
			return withCourseListing(err)
		}

		base := cfg.DefaultBaseImage()
		if courseID != registry.DefaultCourseID {
			entry, err := reg.Lookup(courseID)
			if err != nil {
				return withCourseListing(err)
			}
			base = naming.BaseImageFor(entry.BaseImage, cfg.DefaultBaseImage())
		}

		rt, err := runtime.NewDocker()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := rt.Ping(ctx); err != nil {
			return err
		}
		if err := rt.EnsureNetwork(ctx, cfg.NetworkName()); err != nil {
			return err
		}
		if err := rt.BuildImage(ctx, base, identity.Image); err != nil {
			return err
		}
		if err := rt.StartOrCreate(ctx, runtime.StartOptions{
			Name:       identity.Container,
			Image:      identity.Image,
			Network:    cfg.NetworkName(),
			CoursesDir: coursesDir,
			MountPath:  cfg.MountPath(),
			Platform:   cfg.Platform(),
			Userns:     cfg.Userns(),
		}); err != nil {
			return err
		}
		logger.Info("attaching to %s\n", identity.Container)
		return rt.AttachShell(ctx, identity.Container)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
