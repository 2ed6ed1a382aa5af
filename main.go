package main

import (
	"errors"
	"os"

	"github.com/BrownCS/common-course-containers/cmd"
	"github.com/BrownCS/common-course-containers/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Error("ccc: %v\n", err)
		if errors.Is(err, cmd.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
