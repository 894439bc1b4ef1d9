package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-materials-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("MATERIAL_TYPES", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")

	c := config.New()
	require.Equal(t, "http://localhost:5000/api", c.GetAPIBaseURL())
	require.Equal(t, 20, c.GetPageSize())
	require.Equal(t, []int{1}, c.GetMaterialTypes())
	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, "info", c.GetLogLevel())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("MATERIAL_TYPES", "1,4")
	t.Setenv("HTTP_TIMEOUT", "5s")

	c := config.New()
	require.Equal(t, "https://api.example.com", c.GetAPIBaseURL())
	require.Equal(t, 50, c.GetPageSize())
	require.Equal(t, []int{1, 4}, c.GetMaterialTypes())
	require.Equal(t, 5*time.Second, c.GetHTTPTimeout())
}

func TestNew_InvalidPageSizeFallsBack(t *testing.T) {
	t.Setenv("PAGE_SIZE", "-3")
	require.Equal(t, 20, config.New().GetPageSize())

	t.Setenv("PAGE_SIZE", "lots")
	require.Equal(t, 20, config.New().GetPageSize())
}

func TestLoad_FileValuesBelowEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "materials.yaml")
	err := os.WriteFile(path, []byte(`
api_base_url: https://file.example.com
image_base_url: https://cdn.example.com/
page_size: 10
material_types: [2, 3]
session_file: /tmp/session.json
`), 0o600)
	require.NoError(t, err)

	t.Setenv("API_BASE_URL", "")
	t.Setenv("IMAGE_BASE_URL", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("MATERIAL_TYPES", "")
	t.Setenv("SESSION_FILE", "/override/session.json")

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://file.example.com", c.GetAPIBaseURL())
	require.Equal(t, "https://cdn.example.com", c.GetImageBaseURL())
	require.Equal(t, 10, c.GetPageSize())
	require.Equal(t, []int{2, 3}, c.GetMaterialTypes())
	require.Equal(t, "/override/session.json", c.GetSessionFile())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_EmptyPathUsesEnvVar(t *testing.T) {
	t.Setenv(config.ConfigFileEnvVar, "")
	c, err := config.Load("")
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestGetRestorePolicy(t *testing.T) {
	t.Setenv("RESTORE_POLICY", "")
	require.Equal(t, config.RestorePolicyKeep, config.New().GetRestorePolicy())

	t.Setenv("RESTORE_POLICY", "Refresh")
	require.Equal(t, config.RestorePolicyRefresh, config.New().GetRestorePolicy())

	t.Setenv("RESTORE_POLICY", "sometimes")
	require.Equal(t, config.RestorePolicyKeep, config.New().GetRestorePolicy())
}
