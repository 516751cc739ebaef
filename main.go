package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/layerpipe/layerpipe/cmd"
	"github.com/layerpipe/layerpipe/pkg/environment"
	"github.com/layerpipe/layerpipe/pkg/logging"
)

func main() {
	fs := afero.NewOsFs()
	logger := logging.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := environment.NewEnvironment(fs, nil)
	if err != nil {
		logger.Error("failed to set up environment", "error", err)
		os.Exit(1)
	}

	rootCmd := cmd.NewRootCommand(ctx, fs, env, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
