package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-materials-client/api"
	"github.com/jrsteele09/go-materials-client/app"
	"github.com/jrsteele09/go-materials-client/internal/config"
	"github.com/jrsteele09/go-materials-client/materials"
	"github.com/jrsteele09/go-materials-client/sessions"
	"github.com/jrsteele09/go-materials-client/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

const testProfile = `{"Id":7,"FullName":"Jane Doe","Avatar":"avatars/jane.png","Currency":{"Symbol":"£"}}`

// backend is an in-process stand-in for the materials API
type backend struct {
	mu           sync.Mutex
	generation   int
	accessToken  string
	refreshToken string
	total        int
}

func newBackend(t *testing.T, total int) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{total: total}
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)
	return b, server
}

// rotate issues a new token pair and invalidates the previous one
func (b *backend) rotate() (string, string) {
	b.generation++
	b.accessToken = fmt.Sprintf("access-%d", b.generation)
	b.refreshToken = fmt.Sprintf("refresh-%d", b.generation)
	return b.accessToken, b.refreshToken
}

// expireAccess invalidates the access token but keeps the refresh token usable
func (b *backend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessToken = "revoked"
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch strings.TrimPrefix(r.URL.Path, "/api") {
	case api.PathLogin:
		var req api.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, map[string]any{"Success": false})
			return
		}
		access, refresh := b.rotate()
		writeJSON(w, map[string]any{"Success": true, "Token": access, "RefreshToken": refresh, "User": json.RawMessage(testProfile)})

	case api.PathRefresh:
		var req api.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken == "" || req.RefreshToken != b.refreshToken {
			writeJSON(w, map[string]any{"Success": false})
			return
		}
		access, refresh := b.rotate()
		writeJSON(w, map[string]any{"Success": true, "Token": access, "RefreshToken": refresh, "User": json.RawMessage(testProfile)})

	case api.PathMaterials:
		if r.Header.Get("Authorization") != "Bearer "+b.accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		filter, err := api.DecodeMaterialsFilter(r.URL.Query().Get("filter"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n := min(filter.Limit, max(b.total-filter.Skip, 0))
		items := make([]api.Material, n)
		for i := range items {
			items[i] = api.Material{Title: fmt.Sprintf("Material %d", filter.Skip+i), SalesPriceInUsd: 1.5}
		}
		writeJSON(w, map[string]any{"Materials": items, "RemainingCount": max(b.total-filter.Skip-n, 0)})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func setupConfig(t *testing.T, serverURL string) config.Config {
	t.Helper()
	t.Setenv("API_BASE_URL", serverURL+"/api")
	t.Setenv("IMAGE_BASE_URL", "https://cdn.example.com")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("SESSION_KEY", "test-key")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("MATERIAL_TYPES", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("RESTORE_POLICY", "")
	return config.New()
}

func newApp(t *testing.T, cfg config.Config, opts ...app.Option) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := app.New(context.Background(), nil)
	require.Error(t, err)
}

func TestApp_LoginRestoreAndLoad(t *testing.T) {
	_, server := newBackend(t, 25)
	cfg := setupConfig(t, server.URL)

	first := newApp(t, cfg)
	_, err := first.Manager.Login(context.Background(), "jane", "secret")
	require.NoError(t, err)

	// A second process picks the session up from the encrypted file
	second := newApp(t, cfg)
	s, err := second.Manager.Restore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "access-1", s.AccessToken)

	user, err := s.User()
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/avatars/jane.png", user.AvatarURL(cfg.GetImageBaseURL()))

	loader, err := second.NewLoader()
	require.NoError(t, err)
	for loader.Cursor().HasMore {
		require.Equal(t, materials.Appended, loader.LoadNext(context.Background()).Kind)
	}
	require.Len(t, loader.Items(), 25)
	require.Equal(t, 30, loader.Cursor().Offset)

	require.Contains(t, scrape(t, second), "materials_client_pages_loaded_total 3")
}

func TestApp_RefreshOnExpiredAccessToken(t *testing.T) {
	b, server := newBackend(t, 5)
	cfg := setupConfig(t, server.URL)
	repo := repofakes.NewFakeSessionRepo()

	a := newApp(t, cfg, app.WithRepo(repo))
	_, err := a.Manager.Login(context.Background(), "jane", "secret")
	require.NoError(t, err)
	b.expireAccess()

	loader, err := a.NewLoader()
	require.NoError(t, err)
	res := loader.LoadNext(context.Background())
	require.Equal(t, materials.Appended, res.Kind)
	require.Len(t, res.Items, 5)

	// The rotated pair was written through
	require.Equal(t, "access-2", repo.Snapshot()[sessions.SlotAccessToken])
	require.Equal(t, "refresh-2", repo.Snapshot()[sessions.SlotRefreshToken])
}

func TestApp_RestoreStaleSessionLogsOut(t *testing.T) {
	_, server := newBackend(t, 5)
	cfg := setupConfig(t, server.URL)
	repo := repofakes.NewFakeSessionRepo()
	require.NoError(t, sessions.Save(repo, sessions.New("old-access", "old-refresh", []byte(testProfile))))

	a := newApp(t, cfg, app.WithRepo(repo))
	s, err := a.Manager.Restore(context.Background())
	require.NoError(t, err)
	require.Nil(t, s)
	require.Empty(t, repo.Snapshot())
}

func TestApp_InvalidCredentials(t *testing.T) {
	_, server := newBackend(t, 5)
	cfg := setupConfig(t, server.URL)
	repo := repofakes.NewFakeSessionRepo()

	a := newApp(t, cfg, app.WithRepo(repo))
	_, err := a.Manager.Login(context.Background(), "jane", "wrong")
	require.Error(t, err)
	require.Empty(t, repo.Snapshot())
}

func TestApp_MetricsHandler(t *testing.T) {
	_, server := newBackend(t, 5)
	a := newApp(t, setupConfig(t, server.URL), app.WithRepo(repofakes.NewFakeSessionRepo()))
	_, err := a.Manager.Login(context.Background(), "jane", "secret")
	require.NoError(t, err)

	require.Contains(t, scrape(t, a), `materials_client_logins_total{result="success"} 1`)
}

func scrape(t *testing.T, a *app.App) string {
	t.Helper()
	rec := httptest.NewRecorder()
	a.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
