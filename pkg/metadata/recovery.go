package metadata

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/layerpipe/layerpipe/pkg/geo"
	"github.com/layerpipe/layerpipe/pkg/layer"
	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/messages"
)

// Reprocess rebuilds the in-memory record for layerID from its persisted
// metadata and installs it, without re-running the external processor. It is
// idempotent: repeated calls install the same record. ErrNotFound when the
// metadata is absent, corrupt, or marks an unsuccessful run.
func Reprocess(fs afero.Fs, store *layer.Store, root, layerID string, logger *logging.Logger) (layer.Record, error) {
	p, err := Read(fs, filepath.Join(root, layerID))
	if err != nil {
		return layer.Record{}, err
	}
	if !p.Success {
		return layer.Record{}, fmt.Errorf("%w: run for %s was not successful", ErrNotFound, layerID)
	}

	rec := RecordFromPersisted(fs, root, layerID, p)

	// Keep the original provenance when the registry still remembers it.
	if prev, ok := store.Get(layerID); ok {
		rec.FileSize = prev.FileSize
		if !prev.UploadDate.IsZero() {
			rec.UploadDate = prev.UploadDate
		}
	}

	store.Install(rec)
	logger.Info(messages.MsgLayerRecovered, "layerId", layerID, "imageFile", p.ImageFile)
	return rec, nil
}

// RepairBounds replaces only the bounds of an existing processed record. It
// is the general administrative override for layers stuck on the fallback
// bounding box.
func RepairBounds(store *layer.Store, layerID string, bounds geo.Bounds, logger *logging.Logger) error {
	rec, ok := store.Get(layerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, layerID)
	}
	if rec.Status != layer.StatusProcessed {
		return fmt.Errorf("%w: %s is %s", ErrNotProcessed, layerID, rec.Status)
	}

	rec.Bounds = &bounds
	store.Install(rec)
	logger.Info("layer bounds repaired", "layerId", layerID, "bounds", bounds)
	return nil
}

// RecoverAll walks the persisted layer directories under root and rebuilds
// every recoverable layer. Failures are logged and skipped; the walk never
// aborts on a single bad directory. Returns how many layers were recovered.
func RecoverAll(fs afero.Fs, store *layer.Store, root string, logger *logging.Logger) (int, error) {
	logger.Info(messages.MsgRecoveryStarted, "root", root)

	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return 0, fmt.Errorf("reading layers root %s: %w", root, err)
	}

	recovered := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := Reprocess(fs, store, root, entry.Name(), logger); err != nil {
			logger.Warn("skipping unrecoverable layer", "layerId", entry.Name(), "error", err)
			continue
		}
		recovered++
	}

	logger.Info(messages.MsgRecoveryDone, "recovered", recovered, "scanned", len(entries))
	return recovered, nil
}
