package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/layerpipe/layerpipe/pkg/api"
	"github.com/layerpipe/layerpipe/pkg/environment"
	"github.com/layerpipe/layerpipe/pkg/ingest"
	"github.com/layerpipe/layerpipe/pkg/layer"
	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/metadata"
	"github.com/layerpipe/layerpipe/pkg/processor"
)

// shutdownGrace bounds how long in-flight HTTP requests may drain.
const shutdownGrace = 10 * time.Second

// NewServeCommand creates the 'serve' command running the ingestion API server.
func NewServeCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the layer ingestion HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServer(ctx, fs, env, logger)
		},
	}
}

func runServer(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) error {
	if err := fs.MkdirAll(env.LayersRoot(), 0o755); err != nil {
		return err
	}

	store := layer.NewStore(logger)

	// The registry is not restart-durable; rebuild what the metadata walk can
	// recover before taking traffic.
	if recovered, err := metadata.RecoverAll(fs, store, env.LayersRoot(), logger); err == nil && recovered > 0 {
		logger.Info("recovered layers from disk", "count", recovered)
	}

	client := &processor.Client{
		Runner:  &processor.ExecRunner{Bin: env.ProcessorBin, Logger: logger},
		Timeout: env.ProcessTimeout(),
		Logger:  logger,
	}
	ingestor := ingest.New(fs, store, client, env, logger)
	router := api.NewRouter(fs, store, ingestor, env, logger)

	srv := &http.Server{
		Addr:    net.JoinHostPort(env.Host, env.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("layer ingestion server listening", "addr", srv.Addr, "dataDir", env.DataDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		ingestor.Close()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "grace", shutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("http server shutdown", "error", err)
	}

	// No orphaned processor runs: cancel them and wait for the tasks to land
	// in a terminal state.
	ingestor.Close()
	return nil
}
