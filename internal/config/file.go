package config

import (
	"strconv"

	"github.com/jrsteele09/go-materials-client/internal/utils"
)

// FileConfig is the YAML layout of an optional config file. Environment
// variables take precedence over every field.
type FileConfig struct {
	AppName       string  `yaml:"app_name"`
	Env           string  `yaml:"env"`
	LogLevel      string  `yaml:"log_level"`
	OtelEndpoint  string  `yaml:"otel_endpoint"`
	MetricsAddr   string  `yaml:"metrics_addr"`
	APIBaseURL    string  `yaml:"api_base_url"`
	ImageBaseURL  string  `yaml:"image_base_url"`
	PageSize      int     `yaml:"page_size"`
	MaterialTypes []int   `yaml:"material_types"`
	HTTPTimeout   string  `yaml:"http_timeout"`
	TriggerRate   float64 `yaml:"trigger_rate"`
	RestorePolicy string  `yaml:"restore_policy"`
	SessionFile   string  `yaml:"session_file"`
	SessionKey    string  `yaml:"session_key"`
}

func (f FileConfig) values() values {
	v := values{
		appNameVar:       f.AppName,
		envVar:           f.Env,
		logLevelVar:      f.LogLevel,
		otelEndpointVar:  f.OtelEndpoint,
		metricsAddrVar:   f.MetricsAddr,
		apiBaseURLVar:    f.APIBaseURL,
		imageBaseURLVar:  f.ImageBaseURL,
		httpTimeoutVar:   f.HTTPTimeout,
		restorePolicyVar: f.RestorePolicy,
		sessionFileVar:   f.SessionFile,
		sessionKeyVar:    f.SessionKey,
	}
	if f.PageSize > 0 {
		v[pageSizeVar] = strconv.Itoa(f.PageSize)
	}
	if len(f.MaterialTypes) > 0 {
		v[materialTypesVar] = utils.FormatIntList(f.MaterialTypes)
	}
	if f.TriggerRate > 0 {
		v[triggerRateVar] = strconv.FormatFloat(f.TriggerRate, 'f', -1, 64)
	}
	return v
}
