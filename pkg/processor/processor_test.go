package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/messages"
)

var testLogger = logging.NewTestLogger(io.Discard)

// fakeRunner scripts a processor outcome without spawning anything.
type fakeRunner struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
	delay    time.Duration

	calls [][3]string
}

func (f *fakeRunner) Run(ctx context.Context, inputPath, outputDir, originalName string) (string, string, int, error) {
	f.calls = append(f.calls, [3]string{inputPath, outputDir, originalName})
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", "", -1, ctx.Err()
		}
	}
	return f.stdout, f.stderr, f.exitCode, f.err
}

const goodResult = ResultMarker + ` {"success":true,"imageFile":"ortho.png",` +
	`"leaflet_bounds":[[15.2,44.0],[15.3,44.1]],"width":800,"height":600,` +
	`"crs":"EPSG:4326","original_name":"plot.zip"}`

func newClient(r Runner) *Client {
	return &Client{Runner: r, Timeout: time.Second, Logger: testLogger}
}

func TestProcessSuccess(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{stdout: "progress 10%\n" + goodResult + "\ndone\n"}
	p, err := newClient(runner).Process(context.Background(), "/tmp/in.zip", "/out/layer_1", "plot.zip")
	require.NoError(t, err)

	assert.Equal(t, "ortho.png", p.ImageFile)
	assert.Equal(t, 800, p.Width)
	assert.Equal(t, 600, p.Height)
	assert.Equal(t, "EPSG:4326", p.CRS)
	require.NotNil(t, p.LeafletBounds)
	assert.Equal(t, 15.2, p.LeafletBounds.MinLat())

	require.Len(t, runner.calls, 1)
	assert.Equal(t, [3]string{"/tmp/in.zip", "/out/layer_1", "plot.zip"}, runner.calls[0])
}

func TestProcessSpawnFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exec: no such file or directory")}
	_, err := newClient(runner).Process(context.Background(), "/tmp/in.zip", "/out", "plot.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), messages.ErrProcessorSpawn)
}

func TestProcessNonzeroExit(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{exitCode: 1, stderr: "GDAL failed to open dataset\nmore detail"}
	_, err := newClient(runner).Process(context.Background(), "/tmp/in.zip", "/out", "plot.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), messages.ErrProcessorExit)
	assert.Contains(t, err.Error(), "GDAL failed to open dataset")
	assert.NotContains(t, err.Error(), "more detail", "only the first stderr line is surfaced")
}

func TestProcessMarkerAbsent(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{stdout: "did some work\nbut printed no result\n"}
	_, err := newClient(runner).Process(context.Background(), "/tmp/in.zip", "/out", "plot.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), messages.ErrResultMarkerGone)
}

func TestProcessUnparseablePayload(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{stdout: ResultMarker + " {broken json\n"}
	_, err := newClient(runner).Process(context.Background(), "/tmp/in.zip", "/out", "plot.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), messages.ErrResultUnparseable)
}

func TestProcessSelfReportedFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{stdout: ResultMarker + ` {"success":false,"error":"no georeferencing found"}`}
	_, err := newClient(runner).Process(context.Background(), "/tmp/in.zip", "/out", "plot.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), messages.ErrResultFailure)
	assert.Contains(t, err.Error(), "no georeferencing found")
}

func TestProcessTimeout(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{delay: time.Second, stdout: goodResult}
	client := &Client{Runner: runner, Timeout: 20 * time.Millisecond, Logger: testLogger}

	start := time.Now()
	_, err := client.Process(context.Background(), "/tmp/in.zip", "/out", "plot.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), messages.ErrProcessorTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "wait is bounded")
}

func TestParseResultScansLines(t *testing.T) {
	t.Parallel()

	stdout := fmt.Sprintf("log line\n  %s\ntrailer", goodResult)
	p, err := ParseResult(stdout)
	require.NoError(t, err)
	assert.True(t, p.Success)
	assert.Equal(t, "plot.zip", p.OriginalName)
}
