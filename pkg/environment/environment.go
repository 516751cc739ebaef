package environment

import (
	"path/filepath"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// EnvFileName is the optional dotenv file loaded from the working directory.
const EnvFileName = ".env"

// Environment holds server configuration loaded from the OS environment or
// defaults.
type Environment struct {
	Host              string `env:"HOST,default=0.0.0.0"`
	Port              string `env:"PORT,default=8090"`
	DataDir           string `env:"DATA_DIR"`
	TmpDir            string `env:"TMP_DIR"`
	ProcessorBin      string `env:"PROCESSOR_BIN,default=georef-processor"`
	ProcessTimeoutSec int    `env:"PROCESS_TIMEOUT,default=120"`
	MaxUploadMB       int64  `env:"MAX_UPLOAD_MB,default=100"`

	Extras env.EnvSet
}

// NewEnvironment loads the environment. When environ is non-nil it is used
// as-is (tests inject fixed values this way); otherwise values come from an
// optional .env file plus the OS environment.
func NewEnvironment(fs afero.Fs, environ *Environment) (*Environment, error) {
	if environ != nil {
		environ.applyDefaults()
		return environ, nil
	}

	if exists, _ := afero.Exists(fs, EnvFileName); exists {
		_ = godotenv.Load(EnvFileName)
	}

	loaded := &Environment{}
	es, err := env.UnmarshalFromEnviron(loaded)
	if err != nil {
		return nil, err
	}
	loaded.Extras = es

	loaded.applyDefaults()
	return loaded, nil
}

// applyDefaults fills in the directories that depend on the machine rather
// than the process environment.
func (e *Environment) applyDefaults() {
	if e.DataDir == "" {
		e.DataDir = filepath.Join(xdg.DataHome, "layerpipe")
	}
	if e.TmpDir == "" {
		e.TmpDir = filepath.Join(e.DataDir, "tmp")
	}
	if e.ProcessTimeoutSec <= 0 {
		e.ProcessTimeoutSec = 120
	}
	if e.MaxUploadMB <= 0 {
		e.MaxUploadMB = 100
	}
}

// LayersRoot is the directory holding one subdirectory per processed layer.
func (e *Environment) LayersRoot() string {
	return filepath.Join(e.DataDir, "processed_layers")
}

// ProcessTimeout returns the bounded wait applied to each external processor
// run.
func (e *Environment) ProcessTimeout() time.Duration {
	return time.Duration(e.ProcessTimeoutSec) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (e *Environment) MaxUploadBytes() int64 {
	return e.MaxUploadMB << 20
}
