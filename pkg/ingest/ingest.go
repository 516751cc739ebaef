// Package ingest owns the upload path: it registers layers, supervises one
// background processing task per upload, and records the outcome.
package ingest

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/layerpipe/layerpipe/pkg/environment"
	"github.com/layerpipe/layerpipe/pkg/extract"
	"github.com/layerpipe/layerpipe/pkg/geo"
	"github.com/layerpipe/layerpipe/pkg/layer"
	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/messages"
	"github.com/layerpipe/layerpipe/pkg/metadata"
	"github.com/layerpipe/layerpipe/pkg/processor"
)

// Ingestor accepts uploads and runs their background processing tasks. Tasks
// are independent: a failure is absorbed into that layer's record and never
// crosses over to another layer or crashes the server.
type Ingestor struct {
	fs     afero.Fs
	store  *layer.Store
	client *processor.Client
	root   string
	tmpDir string
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Ingestor rooted at the environment's data directories.
func New(fs afero.Fs, store *layer.Store, client *processor.Client, env *environment.Environment, logger *logging.Logger) *Ingestor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Ingestor{
		fs:     fs,
		store:  store,
		client: client,
		root:   env.LayersRoot(),
		tmpDir: env.TmpDir,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// GenerateLayerID mints a unique layer id. Collisions across the timestamp
// plus random suffix are treated as negligible rather than checked.
func GenerateLayerID() string {
	return "layer_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + uuid.NewString()[:8]
}

// AcceptUpload registers a new layer for the uploaded bytes and launches its
// background task. It returns the minted layer id immediately; processing
// completes asynchronously and clients poll for the outcome.
func (in *Ingestor) AcceptUpload(data []byte, originalName string) (string, error) {
	id := GenerateLayerID()

	tmpPath := filepath.Join(in.tmpDir, id+filepath.Ext(originalName))
	if err := in.fs.MkdirAll(in.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("creating tmp dir: %w", err)
	}
	if err := afero.WriteFile(in.fs, tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}

	// The processor never creates its own namespace; the output directory
	// exists before it is spawned.
	outputDir := filepath.Join(in.root, id)
	if err := in.fs.MkdirAll(outputDir, 0o755); err != nil {
		_ = in.fs.Remove(tmpPath)
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	in.store.Register(id, originalName, int64(len(data)))

	in.wg.Add(1)
	go in.process(id, tmpPath, outputDir, originalName)

	in.logger.Info(messages.MsgProcessingStarted,
		"layerId", id, "fileName", originalName, "size", len(data))
	return id, nil
}

// process runs one layer's pipeline to a terminal state. The original temp
// file is released on every exit path, and a panic anywhere in the task is
// absorbed into the layer's error state.
func (in *Ingestor) process(id, tmpPath, outputDir, originalName string) {
	defer in.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			in.logger.Error("panic in processing task", "layerId", id, "panic", r)
			in.store.Transition(id, layer.StatusError, layer.Fields{
				Error: messages.ErrProcessingPanicked,
			})
		}
	}()
	defer func() {
		if err := in.fs.Remove(tmpPath); err == nil {
			in.logger.Debug(messages.MsgTempFileRemoved, "layerId", id, "path", tmpPath)
		}
	}()

	in.store.Transition(id, layer.StatusProcessing, layer.Fields{})

	info, err := extract.FindRaster(in.fs, tmpPath, in.logger)
	if err != nil {
		in.fail(id, err.Error())
		return
	}

	p, err := in.client.Process(in.ctx, tmpPath, outputDir, originalName)
	if err != nil {
		in.fail(id, err.Error())
		return
	}

	width, height := p.Width, p.Height
	if width == 0 && height == 0 {
		width, height = info.Width, info.Height
	}
	crs := p.CRS
	if crs == "" {
		crs = geo.DefaultCRS
	}
	bounds := p.ResolveBounds()

	in.mirrorMetadata(outputDir, p, originalName, width, height, crs)

	in.store.Transition(id, layer.StatusProcessed, layer.Fields{
		ImageURL: path.Join("/layers", id, "image", p.ImageFile),
		Bounds:   &bounds,
		Width:    width,
		Height:   height,
		CRS:      crs,
	})
	in.logger.Info(messages.MsgProcessingDone, "layerId", id, "imageFile", p.ImageFile)
}

// mirrorMetadata makes sure metadata.json exists in the layer directory so the
// recovery walk can rebuild this layer even if the processor skipped the write.
func (in *Ingestor) mirrorMetadata(outputDir string, p metadata.Persisted, originalName string, width, height int, crs string) {
	exists, err := afero.Exists(in.fs, filepath.Join(outputDir, metadata.FileName))
	if err != nil {
		in.logger.Warn("could not check for metadata, skipping mirror", "dir", outputDir, "error", err)
		return
	}
	if exists {
		return
	}

	p.Width, p.Height, p.CRS = width, height, crs
	if p.OriginalName == "" {
		p.OriginalName = originalName
	}
	if err := metadata.Write(in.fs, outputDir, p); err != nil {
		in.logger.Warn("could not mirror metadata", "dir", outputDir, "error", err)
	}
}

// fail records a terminal error for the layer. The message is surfaced to
// clients verbatim for diagnostics.
func (in *Ingestor) fail(id, message string) {
	in.logger.Error(messages.MsgProcessingFailed, "layerId", id, "error", message)
	in.store.Transition(id, layer.StatusError, layer.Fields{Error: message})
}

// Close cancels in-flight processor runs and waits for every background task
// to reach a terminal state. Wired into the server's shutdown sequence so no
// orphaned external processes outlive the service.
func (in *Ingestor) Close() {
	in.cancel()
	in.wg.Wait()
}
