package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrownCS/common-course-containers/internal/logger"
)

// ErrUsage marks bad invocations (wrong arity, unknown command) so main can
// exit with a distinct status before any side effects are attempted.
var ErrUsage = errors.New("usage error")

var debug bool

var rootCmd = &cobra.Command{
	Use:   "ccc",
	Short: "CCC - common course containers",
	Long: `CCC manages per-course development containers: it installs course
repositories under your courses directory, builds their container
environments, and keeps both up to date.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
}

func Execute() error {
	// Silence usage and errors to avoid cluttering output with Cobra defaults
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	err := rootCmd.Execute()
	if err != nil && strings.Contains(err.Error(), "unknown command") {
		_ = rootCmd.Usage()
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return err
}

// exactArgs is cobra.ExactArgs with the usage-error sentinel attached.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrUsage, cmd.Name(), n, len(args))
		}
		return nil
	}
}

// maxArgs is cobra.MaximumNArgs with the usage-error sentinel attached.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return fmt.Errorf("%w: %s takes at most %d argument(s), got %d", ErrUsage, cmd.Name(), n, len(args))
		}
		return nil
	}
}
