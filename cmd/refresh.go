package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/config"
	"github.com/BrownCS/common-course-containers/internal/logger"
	"github.com/BrownCS/common-course-containers/internal/paths"
	"github.com/BrownCS/common-course-containers/internal/registry"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the latest course list from the update repository",
	Long: `Download the course list published at CCC_UPDATE_REPO (raw CSV or JSON)
and replace the local registry with it.`,
	Args: exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Open()
		if err != nil {
			return err
		}
		url := cfg.UpdateRepo()
		if url == "" {
			return errors.New("CCC_UPDATE_REPO is not set; cannot refresh the registry")
		}

		entries, err := registry.NewHTTPFetcher(url).Fetch(cmd.Context())
		if err != nil {
			return err
		}
		if err := registry.Save(paths.RegistryFile(), entries); err != nil {
			return err
		}
		logger.Info("registry refreshed: %d course(s)\n", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
