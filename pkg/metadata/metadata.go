// Package metadata handles the durable per-layer metadata.json artifact and
// the recovery operations built on it.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/layerpipe/layerpipe/pkg/geo"
	"github.com/layerpipe/layerpipe/pkg/layer"
)

// FileName is the per-layer metadata artifact inside the layer's directory.
const FileName = "metadata.json"

// ErrNotFound covers every consistency failure of the recovery path: missing
// file, corrupt JSON, or a run that was not successful. Callers surface it as
// a plain not-found; no existing state is mutated.
var ErrNotFound = errors.New("layer metadata not found")

// ErrNotProcessed is returned when a repair targets a layer that is not in
// the processed state.
var ErrNotProcessed = errors.New("layer is not in the processed state")

// Persisted is the on-disk projection of a successful processing run. It is
// written by the external raster processor and read-only afterwards; the
// field names are a wire contract shared with that process.
type Persisted struct {
	Success       bool        `json:"success"`
	ImageFile     string      `json:"imageFile"`
	BBox          *[4]float64 `json:"bbox,omitempty"` // minX, minY, maxX, maxY in source CRS
	LeafletBounds *geo.Bounds `json:"leaflet_bounds,omitempty"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	CRS           string      `json:"crs"`
	OriginalName  string      `json:"original_name"`
	Error         string      `json:"error,omitempty"`
}

// ResolveBounds derives the geographic display bounds: leaflet_bounds when
// present, otherwise the source-CRS bbox pushed through the transform engine,
// otherwise the country-wide fallback.
func (p Persisted) ResolveBounds() geo.Bounds {
	if p.LeafletBounds != nil && !p.LeafletBounds.IsZero() {
		return *p.LeafletBounds
	}
	if p.BBox != nil {
		proj := geo.ForCRS(p.CRS)
		return geo.BoundsFromProjected(p.BBox[0], p.BBox[1], p.BBox[2], p.BBox[3], proj)
	}
	return geo.FallbackBounds
}

// Read loads metadata.json from a layer directory. Absence and corruption
// both map to ErrNotFound.
func Read(fs afero.Fs, dir string) (Persisted, error) {
	filePath := filepath.Join(dir, FileName)
	exists, err := afero.Exists(fs, filePath)
	if err != nil {
		return Persisted{}, fmt.Errorf("checking %s: %w", filePath, err)
	}
	if !exists {
		return Persisted{}, fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}

	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return Persisted{}, fmt.Errorf("reading %s: %w", filePath, err)
	}

	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return Persisted{}, fmt.Errorf("%w: corrupt metadata in %s: %v", ErrNotFound, dir, err)
	}
	return p, nil
}

// Write stores metadata.json in a layer directory. The external processor
// normally writes this file itself; the pipeline mirrors results here so a
// recovery walk sees them even when the processor skipped the write.
func Write(fs afero.Fs, dir string, p Persisted) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, filepath.Join(dir, FileName), data, 0o644)
}

// RecordFromPersisted rebuilds the processed layer record a client would have
// seen for this layer. The upload date is recovered from the metadata file's
// own timestamp so repeated rebuilds agree with each other.
func RecordFromPersisted(fs afero.Fs, root, layerID string, p Persisted) layer.Record {
	rec := layer.Record{
		ID:       layerID,
		Status:   layer.StatusProcessed,
		FileName: p.OriginalName,
		ImageURL: path.Join("/layers", layerID, "image", p.ImageFile),
		Width:    p.Width,
		Height:   p.Height,
		CRS:      p.CRS,
	}
	if rec.CRS == "" {
		rec.CRS = geo.DefaultCRS
	}

	bounds := p.ResolveBounds()
	rec.Bounds = &bounds

	if info, err := fs.Stat(filepath.Join(root, layerID, FileName)); err == nil {
		rec.UploadDate = info.ModTime().UTC()
	}
	return rec
}
