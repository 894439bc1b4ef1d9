// Package app wires configuration, storage, the API client and the session
// manager into a single value owned by the command being run.
package app

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-materials-client/api"
	"github.com/jrsteele09/go-materials-client/auth"
	"github.com/jrsteele09/go-materials-client/internal/config"
	"github.com/jrsteele09/go-materials-client/materials"
	"github.com/jrsteele09/go-materials-client/metrics"
	"github.com/jrsteele09/go-materials-client/sessions"
	"github.com/jrsteele09/go-materials-client/sessions/filestore"
	"github.com/jrsteele09/go-materials-client/telemetry"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// App holds the long-lived collaborators of one client process.
type App struct {
	Config   config.Config
	Repo     sessions.Repo
	Client   *api.Client
	Manager  *auth.Manager
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	shutdown telemetry.ShutdownFunc
}

type options struct {
	repo       sessions.Repo
	httpClient *http.Client
}

// Option defines a function type to modify how New builds the App.
type Option func(*options)

// WithRepo replaces the session file with repo.
func WithRepo(repo sessions.Repo) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// WithHTTPClient replaces the instrumented HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// New builds the App described by cfg. No network call is made; call
// Manager.Restore to pick up a stored session.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("[app.New] config is required")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	shutdown, err := telemetry.Init(ctx, cfg.GetAppName(), cfg.GetOtelEndpoint())
	if err != nil {
		return nil, errors.Wrap(err, "[app.New] telemetry")
	}

	repo := o.repo
	if repo == nil {
		store, err := filestore.New(cfg.GetSessionFile(), filestore.WithSecret(cfg.GetSessionKey()))
		if err != nil {
			return nil, errors.Wrap(err, "[app.New] session store")
		}
		repo = store
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.GetHTTPTimeout(),
			Transport: telemetry.Transport(http.DefaultTransport),
		}
	}

	client, err := api.NewClient(cfg.GetAPIBaseURL(), api.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "[app.New] api client")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry)

	policy := auth.KeepOnTransportError
	if cfg.GetRestorePolicy() == config.RestorePolicyRefresh {
		policy = auth.RefreshOnAnyError
	}

	manager, err := auth.NewManager(client, repo,
		auth.WithMetrics(collector),
		auth.WithProbeTypes(cfg.GetMaterialTypes()),
		auth.WithRestorePolicy(policy),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[app.New] session manager")
	}

	log.Debug().
		Str("api", cfg.GetAPIBaseURL()).
		Str("env", cfg.GetEnv()).
		Msg("app: initialised")

	return &App{
		Config:   cfg,
		Repo:     repo,
		Client:   client,
		Manager:  manager,
		Registry: registry,
		Metrics:  collector,
		shutdown: shutdown,
	}, nil
}

// NewLoader creates a loader for a fresh materials list.
func (a *App) NewLoader() (*materials.Loader, error) {
	return materials.NewLoader(a.Client, a.Manager,
		materials.WithPageSize(a.Config.GetPageSize()),
		materials.WithTypes(a.Config.GetMaterialTypes()),
		materials.WithMetrics(a.Metrics),
	)
}

// NewWatcher creates a watcher driving loader at the configured trigger rate.
func (a *App) NewWatcher(loader *materials.Loader, opts ...materials.WatcherOption) *materials.Watcher {
	opts = append([]materials.WatcherOption{materials.WithRate(a.Config.GetTriggerRate())}, opts...)
	return materials.NewWatcher(loader, opts...)
}

// MetricsHandler serves the App's registry in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return metrics.Handler(a.Registry)
}

// Close flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx)
}
