package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnvVar names the environment variable holding an optional YAML config path.
const ConfigFileEnvVar = "MATERIALS_CONFIG"

type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetOtelEndpoint() string
	GetMetricsAddr() string
}

type ClientConfig interface {
	GetAPIBaseURL() string
	GetImageBaseURL() string
	GetPageSize() int
	GetMaterialTypes() []int
	GetHTTPTimeout() time.Duration
	GetTriggerRate() float64
	GetRestorePolicy() string
}

type StorageConfig interface {
	GetSessionFile() string
	GetSessionKey() string
}

type mainConfig struct {
	EnvVars
	Client
	Storage
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newMainConfig(nil)
}

// Load returns a Config backed by environment variables, falling back to the
// values in the YAML file at path. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(ConfigFileEnvVar)
	}
	if path == "" {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[config.Load] reading %s", path)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "[config.Load] parsing %s", path)
	}
	return newMainConfig(file.values()), nil
}

func newMainConfig(v values) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{values: v},
		Client:  Client{values: v},
		Storage: Storage{values: v},
	}
}
