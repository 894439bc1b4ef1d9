package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	appNameVar      = "APP_NAME"
	envVar          = "ENV"
	logLevelVar     = "LOG_LEVEL"
	otelEndpointVar = "OTEL_EXPORTER_OTLP_ENDPOINT"
	metricsAddrVar  = "METRICS_ADDR"
)

// values holds settings read from a config file, keyed by environment variable name.
type values map[string]string

// get resolves a setting: environment first, then the config file, then the default.
func (v values) get(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value := strings.TrimSpace(v[envVar]); value != "" {
		return value
	}
	return defaultValue
}

func (v values) getInt(envVar string, defaultValue int) int {
	i, err := strconv.Atoi(v.get(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return i
}

func (v values) getFloat(envVar string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(v.get(envVar, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func (v values) getDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(v.get(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

type EnvVars struct {
	values values
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.values.get(appNameVar, "Materials")
}

func (e EnvVars) GetEnv() string {
	return e.values.get(envVar, "DEV")
}

// GetLogLevel returns a zerolog level name (debug, info, warn, error).
func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.values.get(logLevelVar, "info"))
}

// GetOtelEndpoint returns the OTLP trace endpoint. Tracing is disabled when empty.
func (e EnvVars) GetOtelEndpoint() string {
	return e.values.get(otelEndpointVar, "")
}

func (e EnvVars) GetMetricsAddr() string {
	return e.values.get(metricsAddrVar, ":9090")
}

func GetEnv(envVar, defaultValue string) string {
	return values(nil).get(envVar, defaultValue)
}
