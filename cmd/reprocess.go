package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/layerpipe/layerpipe/pkg/environment"
	"github.com/layerpipe/layerpipe/pkg/layer"
	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/metadata"
)

// NewReprocessCommand creates the 'reprocess' command: an offline walk of the
// persisted layer directories that reports what a server start would recover.
func NewReprocessCommand(fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "reprocess [layerId]",
		Aliases: []string{"r"},
		Short:   "Rebuild layer state from persisted metadata",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store := layer.NewStore(logger)

			if len(args) == 1 {
				rec, err := metadata.Reprocess(fs, store, env.LayersRoot(), args[0], logger)
				if err != nil {
					return err
				}
				logger.Info("layer is recoverable",
					"layerId", rec.ID, "imageUrl", rec.ImageURL, "bounds", rec.Bounds)
				return nil
			}

			recovered, err := metadata.RecoverAll(fs, store, env.LayersRoot(), logger)
			if err != nil {
				return err
			}
			logger.Info("recoverable layers", "count", recovered)
			return nil
		},
	}
}
