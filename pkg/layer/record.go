package layer

import (
	"time"

	"github.com/layerpipe/layerpipe/pkg/geo"
)

// Status is a layer's position in the ingestion lifecycle.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusError      Status = "error"
)

// Terminal reports whether the status ends the lifecycle. Terminal records are
// immutable except through the administrative recovery operations.
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusError
}

// Record is the central entity of the pipeline: one uploaded raster layer and
// everything a map client needs to render it.
type Record struct {
	ID         string      `json:"layerId"`
	Status     Status      `json:"status"`
	FileName   string      `json:"fileName"`
	FileSize   int64       `json:"fileSize"`
	UploadDate time.Time   `json:"uploadDate"`
	ImageURL   string      `json:"imageUrl,omitempty"`
	Bounds     *geo.Bounds `json:"bounds,omitempty"`
	Width      int         `json:"width,omitempty"`
	Height     int         `json:"height,omitempty"`
	CRS        string      `json:"crs,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Fields carries the status-dependent values supplied on a transition. Values
// not applicable to the new status are discarded so the record invariants
// hold: image metadata exists only on processed records, an error message only
// on errored ones.
type Fields struct {
	ImageURL string
	Bounds   *geo.Bounds
	Width    int
	Height   int
	CRS      string
	Error    string
}
