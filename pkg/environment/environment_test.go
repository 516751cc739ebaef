package environment

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvironmentWithInjectedValues(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	environ := &Environment{
		Host:              "127.0.0.1",
		Port:              "9000",
		DataDir:           "/data",
		ProcessorBin:      "/usr/local/bin/georef",
		ProcessTimeoutSec: 30,
		MaxUploadMB:       10,
	}

	e, err := NewEnvironment(fs, environ)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", e.Host)
	assert.Equal(t, filepath.Join("/data", "processed_layers"), e.LayersRoot())
	assert.Equal(t, filepath.Join("/data", "tmp"), e.TmpDir)
	assert.Equal(t, 30*time.Second, e.ProcessTimeout())
	assert.Equal(t, int64(10<<20), e.MaxUploadBytes())
}

func TestNewEnvironmentDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()

	e, err := NewEnvironment(fs, &Environment{})
	require.NoError(t, err)

	assert.NotEmpty(t, e.DataDir, "data dir should default from xdg when unset")
	assert.Equal(t, 120, e.ProcessTimeoutSec)
	assert.Equal(t, int64(100), e.MaxUploadMB)
	assert.Equal(t, filepath.Join(e.DataDir, "tmp"), e.TmpDir)
}

func TestNewEnvironmentFromEnviron(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/layers")
	t.Setenv("PROCESS_TIMEOUT", "45")

	fs := afero.NewMemMapFs()
	e, err := NewEnvironment(fs, nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/layers", e.DataDir)
	assert.Equal(t, 45*time.Second, e.ProcessTimeout())
	assert.Equal(t, "0.0.0.0", e.Host)
}
