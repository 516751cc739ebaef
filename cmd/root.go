// Package cmd wires the CLI commands to the pipeline's components.
package cmd

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/layerpipe/layerpipe/pkg/environment"
	"github.com/layerpipe/layerpipe/pkg/logging"
)

// NewRootCommand creates the root command and passes the shared dependencies
// down to the subcommands.
func NewRootCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "layerpipe",
		Short: "Geospatial layer ingestion pipeline",
		Long: "layerpipe accepts uploaded geospatial archives, runs the external raster\n" +
			"processor on them, and serves the resulting web-displayable layers.",
	}

	rootCmd.AddCommand(
		NewServeCommand(ctx, fs, env, logger),
		NewReprocessCommand(fs, env, logger),
		NewVersionCommand(logger),
	)
	return rootCmd
}
