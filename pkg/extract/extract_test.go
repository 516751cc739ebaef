package extract

import (
	"archive/zip"
	"bytes"
	"image"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/layerpipe/layerpipe/pkg/logging"
)

var testLogger = logging.NewTestLogger(io.Discard)

// encodeTIFF produces a real TIFF of the given dimensions.
func encodeTIFF(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// zipWith builds an in-memory ZIP holding the given entries.
func zipWith(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeUpload(t *testing.T, data []byte) (afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/upload.bin", data, 0o644))
	return fs, "/tmp/upload.bin"
}

func TestFindRasterInZip(t *testing.T) {
	t.Parallel()

	fs, path := writeUpload(t, zipWith(t, map[string][]byte{
		"readme.txt":     []byte("survey plot"),
		"plot/ortho.tif": encodeTIFF(t, 800, 600),
	}))

	info, err := FindRaster(fs, path, testLogger)
	require.NoError(t, err)
	assert.Equal(t, "ortho.tif", info.Name)
	assert.Equal(t, 800, info.Width)
	assert.Equal(t, 600, info.Height)
}

func TestFindRasterBareTIFF(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/ortho.tif", encodeTIFF(t, 64, 48), 0o644))

	info, err := FindRaster(fs, "/tmp/ortho.tif", testLogger)
	require.NoError(t, err)
	assert.Equal(t, "ortho.tif", info.Name)
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 48, info.Height)
}

func TestFindRasterSignatureScanFallback(t *testing.T) {
	t.Parallel()

	// A TIFF embedded mid-stream in an unrecognized container: only the
	// byte-order-mark scan can find it.
	payload := append([]byte("JUNKHEADER\x00\x01\x02"), encodeTIFF(t, 32, 16)...)
	fs, path := writeUpload(t, payload)

	info, err := FindRaster(fs, path, testLogger)
	require.NoError(t, err)
	assert.Equal(t, 32, info.Width)
	assert.Equal(t, 16, info.Height)
}

func TestFindRasterZipWithoutRasterEntries(t *testing.T) {
	t.Parallel()

	fs, path := writeUpload(t, zipWith(t, map[string][]byte{
		"notes.txt": []byte("no imagery here"),
	}))

	_, err := FindRaster(fs, path, testLogger)
	assert.ErrorIs(t, err, ErrNoRaster)
}

func TestFindRasterGarbage(t *testing.T) {
	t.Parallel()

	fs, path := writeUpload(t, []byte("definitely not a raster"))
	_, err := FindRaster(fs, path, testLogger)
	assert.ErrorIs(t, err, ErrNoRaster)
}

func TestFindRasterEmptyFile(t *testing.T) {
	t.Parallel()

	fs, path := writeUpload(t, nil)
	_, err := FindRaster(fs, path, testLogger)
	assert.ErrorIs(t, err, ErrNoRaster)
}

func TestFindRasterCorruptHeaderIsNonFatal(t *testing.T) {
	t.Parallel()

	// Valid byte-order mark but a truncated IFD: dimensions stay zero, no error.
	fs, path := writeUpload(t, []byte{0x49, 0x49, 0x2A, 0x00, 0x08, 0x00})
	info, err := FindRaster(fs, path, testLogger)
	require.NoError(t, err)
	assert.Zero(t, info.Width)
	assert.Zero(t, info.Height)
}

func TestFindRasterMissingFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	_, err := FindRaster(fs, "/nope.zip", testLogger)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRaster)
}
