package telemetry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-materials-client/telemetry"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), "materials", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInit_RequiresServiceName(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), "", "http://localhost:4318")
	require.Error(t, err)
	require.NotNil(t, shutdown)
}

func TestInit_InvalidEndpoint(t *testing.T) {
	_, err := telemetry.Init(context.Background(), "materials", "http://")
	require.Error(t, err)
}

func TestInit_Enabled(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), "materials", "http://127.0.0.1:4318/v1/traces")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))
}

func TestTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Materials/GetAll/", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := &http.Client{Transport: telemetry.Transport(nil)}
	resp, err := client.Get(server.URL + "/Materials/GetAll/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
