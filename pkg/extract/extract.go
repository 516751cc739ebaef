// Package extract locates the raster payload inside an uploaded archive and
// reads its structural header (pixel dimensions) without decoding pixels.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mholt/archiver/v3"
	"github.com/spf13/afero"
	"golang.org/x/image/tiff"

	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/messages"
)

// ErrNoRaster is returned when the upload contains no recognizable raster.
var ErrNoRaster = errors.New(messages.ErrNoRasterInUpload)

// TIFF byte-order marks: little endian ("II*\0") and big endian ("MM\0*").
var (
	tiffLittleEndian = []byte{0x49, 0x49, 0x2A, 0x00}
	tiffBigEndian    = []byte{0x4D, 0x4D, 0x00, 0x2A}
)

// RasterInfo describes the raster payload found in an upload.
type RasterInfo struct {
	// Name is the payload's file name inside the archive, or the upload's own
	// name when it was a bare raster.
	Name string

	// Width and Height are the pixel dimensions read from the TIFF header.
	// They are zero when the header could not be parsed; that is not fatal
	// because the external processor reads the raster itself.
	Width  int
	Height int
}

// FindRaster inspects the uploaded file at path and isolates the embedded
// raster. ZIP containers are walked with a real archive reader; a bare TIFF
// is accepted directly; anything else falls back to scanning for the TIFF
// byte-order mark, which still recovers payloads from archives with a corrupt
// central directory.
func FindRaster(fs afero.Fs, path string, logger *logging.Logger) (RasterInfo, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return RasterInfo{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return RasterInfo{}, ErrNoRaster
	}

	if isTIFF(data) {
		return rasterInfo(filepath.Base(path), data, logger), nil
	}

	if mimetype.Detect(data).Is("application/zip") {
		info, err := rasterFromZip(data, logger)
		if err == nil {
			return info, nil
		}
		logger.Warn("archive walk found no raster, falling back to signature scan",
			"path", path, "error", err)
	}

	return rasterByScan(filepath.Base(path), data, logger)
}

// rasterFromZip walks the ZIP entries and returns the first TIFF payload.
func rasterFromZip(data []byte, logger *logging.Logger) (RasterInfo, error) {
	z := archiver.NewZip()
	if err := z.Open(bytes.NewReader(data), int64(len(data))); err != nil {
		return RasterInfo{}, fmt.Errorf("opening zip: %w", err)
	}
	defer z.Close()

	for {
		f, err := z.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return RasterInfo{}, fmt.Errorf("walking zip: %w", err)
		}

		name := f.Name()
		if f.IsDir() || !isRasterName(name) {
			f.Close()
			continue
		}

		payload, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return RasterInfo{}, fmt.Errorf("extracting %s: %w", name, err)
		}
		return rasterInfo(name, payload, logger), nil
	}
	return RasterInfo{}, ErrNoRaster
}

// rasterByScan searches raw bytes for a TIFF byte-order mark and treats the
// remainder as the payload.
func rasterByScan(name string, data []byte, logger *logging.Logger) (RasterInfo, error) {
	idx := bytes.Index(data, tiffLittleEndian)
	if idx < 0 {
		idx = bytes.Index(data, tiffBigEndian)
	}
	if idx < 0 {
		return RasterInfo{}, ErrNoRaster
	}

	logger.Debug("raster located by signature scan", "name", name, "offset", idx)
	return rasterInfo(name, data[idx:], logger), nil
}

// rasterInfo reads the pixel dimensions from the payload header.
func rasterInfo(name string, payload []byte, logger *logging.Logger) RasterInfo {
	info := RasterInfo{Name: name}

	cfg, err := tiff.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		logger.Warn("could not read raster header", "name", name, "error", err)
		return info
	}

	info.Width = cfg.Width
	info.Height = cfg.Height
	return info
}

func isTIFF(data []byte) bool {
	return bytes.HasPrefix(data, tiffLittleEndian) || bytes.HasPrefix(data, tiffBigEndian)
}

func isRasterName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}
