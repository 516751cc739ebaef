// Package processor supervises the out-of-process raster worker: it spawns
// the binary, captures its output, and parses the structured result line.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	execute "github.com/alexellis/go-execute/v2"

	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/messages"
	"github.com/layerpipe/layerpipe/pkg/metadata"
)

// ResultMarker prefixes the stdout line carrying the processor's structured
// result. Everything after the marker must parse as the metadata.json
// document of the run.
const ResultMarker = "GEOREF_RESULT:"

// Runner abstracts the actual process spawn so tests can script outcomes.
type Runner interface {
	Run(ctx context.Context, inputPath, outputDir, originalName string) (stdout, stderr string, exitCode int, err error)
}

// ExecRunner invokes the external raster processor binary with the
// three-argument contract: input file, output directory, original name.
type ExecRunner struct {
	Bin    string
	Logger *logging.Logger
}

// Run executes the processor and waits for it to exit. Cancellation and
// deadline come from ctx.
func (r *ExecRunner) Run(ctx context.Context, inputPath, outputDir, originalName string) (string, string, int, error) {
	r.Logger.Debug("spawning raster processor",
		"bin", r.Bin, "input", inputPath, "outputDir", outputDir)

	task := execute.ExecTask{
		Command: r.Bin,
		Args:    []string{inputPath, outputDir, originalName},
	}

	result, err := task.Execute(ctx)
	if err != nil {
		return result.Stdout, result.Stderr, result.ExitCode, err
	}
	return result.Stdout, result.Stderr, result.ExitCode, nil
}

// Client runs the processor under a bounded wait and turns every distinct
// failure mode into a uniform error, per the pipeline's error taxonomy.
type Client struct {
	Runner  Runner
	Timeout time.Duration
	Logger  *logging.Logger
}

// Process runs one processing attempt for a layer. On success it returns the
// parsed result document. Spawn failure, nonzero exit, a missing marker, an
// unparseable payload, a self-reported failure, and timeout all collapse into
// a descriptive error; callers store its message on the layer record verbatim.
func (c *Client) Process(ctx context.Context, inputPath, outputDir, originalName string) (metadata.Persisted, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	stdout, stderr, exitCode, err := c.Runner.Run(ctx, inputPath, outputDir, originalName)
	if stderr != "" {
		// Full stderr stays server-side; only a summary reaches the record.
		c.Logger.Warn("raster processor stderr", "input", inputPath, "stderr", stderr)
	}

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
			return metadata.Persisted{}, fmt.Errorf("%s after %s", messages.ErrProcessorTimeout, c.Timeout)
		case errors.Is(err, context.Canceled):
			return metadata.Persisted{}, errors.New(messages.ErrProcessorCancelled)
		default:
			return metadata.Persisted{}, fmt.Errorf("%s: %v", messages.ErrProcessorSpawn, err)
		}
	}
	if exitCode != 0 {
		return metadata.Persisted{}, fmt.Errorf("%s (exit code %d): %s",
			messages.ErrProcessorExit, exitCode, summarize(stderr))
	}

	p, err := ParseResult(stdout)
	if err != nil {
		return metadata.Persisted{}, err
	}
	if !p.Success {
		reason := p.Error
		if reason == "" {
			reason = "no reason given"
		}
		return metadata.Persisted{}, fmt.Errorf("%s: %s", messages.ErrResultFailure, reason)
	}
	return p, nil
}

// ParseResult scans processor stdout for the marker line and decodes the
// JSON document that follows it.
func ParseResult(stdout string) (metadata.Persisted, error) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, ResultMarker) {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, ResultMarker))
		var p metadata.Persisted
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return metadata.Persisted{}, fmt.Errorf("%s: %v", messages.ErrResultUnparseable, err)
		}
		return p, nil
	}
	return metadata.Persisted{}, errors.New(messages.ErrResultMarkerGone)
}

// summarize trims stderr down to a single line suitable for a record message.
func summarize(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return "no stderr output"
	}
	if idx := strings.IndexByte(stderr, '\n'); idx >= 0 {
		stderr = stderr[:idx]
	}
	const maxLen = 200
	if len(stderr) > maxLen {
		stderr = stderr[:maxLen] + "..."
	}
	return stderr
}
