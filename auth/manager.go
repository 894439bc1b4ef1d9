package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-materials-client/api"
	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/internal/utils"
	"github.com/jrsteele09/go-materials-client/metrics"
	"github.com/jrsteele09/go-materials-client/sessions"
	"github.com/jrsteele09/go-materials-client/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// API is the subset of the REST client the session manager calls.
type API interface {
	Login(ctx context.Context, username, password string) (*api.AuthResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*api.AuthResponse, error)
	GetMaterials(ctx context.Context, tok *oauth2.Token, filter api.MaterialsFilter) (*api.MaterialsPage, error)
}

// RestorePolicy decides what a failed validation probe means during Restore.
type RestorePolicy int

const (
	// KeepOnTransportError refreshes only when the probe is rejected as
	// unauthenticated. A network or server failure keeps the stored session.
	KeepOnTransportError RestorePolicy = iota

	// RefreshOnAnyError treats every probe failure as an authentication
	// failure: refresh, and log out if that fails too.
	RefreshOnAnyError
)

// Manager owns the signed-in session: it restores it at startup, logs in,
// rotates the token pair and logs out, mirroring every change to the durable record.
type Manager struct {
	api           API
	repo          sessions.Repo
	metrics       metrics.Recorder
	probeTypes    []int
	restorePolicy RestorePolicy
	expiryLeeway  time.Duration

	mu         sync.RWMutex
	session    *sessions.Session
	generation uint64 // bumped whenever the session is replaced or cleared

	refreshGroup singleflight.Group
}

var _ oauth2.TokenSource = (*Manager)(nil)

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) ManagerOption {
	return func(m *Manager) {
		m.metrics = recorder
	}
}

// WithProbeTypes sets the material types used by the restore validation probe.
func WithProbeTypes(types []int) ManagerOption {
	return func(m *Manager) {
		m.probeTypes = types
	}
}

// WithRestorePolicy sets how Restore treats a failed validation probe.
func WithRestorePolicy(policy RestorePolicy) ManagerOption {
	return func(m *Manager) {
		m.restorePolicy = policy
	}
}

// WithExpiryLeeway sets how close to its exp claim a stored access token may
// be before Restore skips the probe and refreshes directly.
func WithExpiryLeeway(leeway time.Duration) ManagerOption {
	return func(m *Manager) {
		m.expiryLeeway = leeway
	}
}

// NewManager creates a session manager. It holds no session until Restore or Login succeed.
func NewManager(client API, repo sessions.Repo, options ...ManagerOption) (*Manager, error) {
	if client == nil {
		return nil, errors.New("[NewManager] API client is required")
	}
	if repo == nil {
		return nil, errors.New("[NewManager] session repo is required")
	}

	m := &Manager{
		api:          client,
		repo:         repo,
		metrics:      metrics.Noop{},
		probeTypes:   []int{1},
		expiryLeeway: 10 * time.Second,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Current returns a copy of the signed-in session, or nil.
func (m *Manager) Current() *sessions.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone()
}

// Token implements oauth2.TokenSource with the current access token.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.session.Valid() {
		return nil, apperrors.ErrNoSession
	}
	return m.session.Token(), nil
}

// Restore loads the durable record and validates it against the API.
// It returns (nil, nil) when there is no usable session; the record is
// erased in that case. Errors are returned only for storage failures.
func (m *Manager) Restore(ctx context.Context) (*sessions.Session, error) {
	stored, err := sessions.Load(m.repo)
	if apperrors.Is(err, apperrors.ErrNoSession) {
		if apperrors.Is(err, apperrors.ErrInvalidRecord) {
			log.Warn().Err(err).Msg("Restore: discarding unreadable session record")
			if err := sessions.Erase(m.repo); err != nil {
				return nil, errors.Wrap(err, "[Manager.Restore] erase record")
			}
		}
		m.metrics.RecordRestore(metrics.RestoreNone)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Restore] load")
	}

	m.setSession(stored)

	// A JWT already past its exp claim cannot pass the probe
	if token.Expired(stored.AccessToken, m.expiryLeeway) {
		log.Debug().Msg("Restore: stored access token expired, refreshing")
		return m.restoreByRefresh(ctx)
	}

	_, err = m.api.GetMaterials(ctx, stored.Token(), api.MaterialsFilter{Skip: 0, Limit: 1, Types: m.probeTypes})
	switch {
	case err == nil:
		m.metrics.RecordRestore(metrics.RestoreValid)
		return stored.Clone(), nil
	case apperrors.Is(err, apperrors.ErrAuthExpired), m.restorePolicy == RefreshOnAnyError:
		log.Err(err).Msg("Restore: token validation failed")
		return m.restoreByRefresh(ctx)
	default:
		log.Warn().Err(err).Msg("Restore: API unreachable, keeping stored session")
		m.metrics.RecordRestore(metrics.RestoreOffline)
		return stored.Clone(), nil
	}
}

func (m *Manager) restoreByRefresh(ctx context.Context) (*sessions.Session, error) {
	refreshed, err := m.Refresh(ctx)
	if err == nil {
		m.metrics.RecordRestore(metrics.RestoreRefreshed)
		return refreshed, nil
	}

	log.Err(err).Msg("Restore: refresh failed, clearing session")
	m.metrics.RecordRestore(metrics.RestoreCleared)
	if err := m.Logout(); err != nil {
		return nil, errors.Wrap(err, "[Manager.Restore] logout")
	}
	return nil, nil
}

// Login authenticates with the API and persists the resulting session.
// Nothing is persisted unless the API reports success.
func (m *Manager) Login(ctx context.Context, username, password string) (*sessions.Session, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.metrics.RecordLogin(false)
		return nil, errors.Wrap(err, "[Manager.Login]")
	}

	s := sessions.New(utils.Value(resp.Token), utils.Value(resp.RefreshToken), resp.User)
	if err := m.persist(s, nil); err != nil {
		m.metrics.RecordLogin(false)
		return nil, errors.Wrap(err, "[Manager.Login] persist")
	}

	m.metrics.RecordLogin(true)
	log.Info().Msg("Login: session created")
	return s.Clone(), nil
}

// Refresh rotates the token pair. Concurrent callers share a single request
// so a refresh token is never presented twice. A rejected refresh leaves the
// session as is; the caller is expected to Logout.
func (m *Manager) Refresh(ctx context.Context) (*sessions.Session, error) {
	v, err, shared := m.refreshGroup.Do(refreshKey, func() (any, error) {
		return m.refresh(ctx)
	})
	if shared {
		log.Debug().Msg("Refresh: joined in-flight refresh")
	}
	if err != nil {
		return nil, err
	}
	return v.(*sessions.Session).Clone(), nil
}

func (m *Manager) refresh(ctx context.Context) (*sessions.Session, error) {
	current, generation := m.snapshot()
	if !current.Valid() {
		m.metrics.RecordRefresh(false)
		return nil, apperrors.Join(apperrors.ErrRefreshFailed, apperrors.ErrNoSession)
	}

	resp, err := m.api.Refresh(ctx, current.AccessToken, current.RefreshToken)
	if err != nil {
		m.metrics.RecordRefresh(false)
		return nil, apperrors.Join(apperrors.ErrRefreshFailed, err)
	}

	s := sessions.New(utils.Value(resp.Token), utils.Value(resp.RefreshToken), resp.User)
	if err := m.persist(s, &generation); err != nil {
		m.metrics.RecordRefresh(false)
		return nil, apperrors.Join(apperrors.ErrRefreshFailed, err)
	}

	m.metrics.RecordRefresh(true)
	log.Debug().Msg("Refresh: token pair rotated")
	return s, nil
}

// Logout clears the session and erases the durable record. It is safe to
// call without a session.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	m.generation++
	if err := sessions.Erase(m.repo); err != nil {
		return errors.Wrap(err, "[Manager.Logout] erase")
	}
	return nil
}

// persist writes s to the durable record and then makes it current. A failed
// write clears both the record and the in-memory session so they still agree.
// When expected is set, s is written only if the session has not been replaced
// or cleared since that generation was read.
func (m *Manager) persist(s *sessions.Session, expected *uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expected != nil && *expected != m.generation {
		log.Debug().Msg("persist: session changed during refresh, discarding rotated pair")
		return errors.Wrap(apperrors.ErrNoSession, "[Manager.persist] session changed")
	}
	m.generation++
	if err := sessions.Save(m.repo, s); err != nil {
		if eraseErr := sessions.Erase(m.repo); eraseErr != nil {
			log.Err(eraseErr).Msg("failed to erase partial session record")
		}
		m.session = nil
		return err
	}
	m.session = s.Clone()
	return nil
}

func (m *Manager) setSession(s *sessions.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s.Clone()
	m.generation++
}

func (m *Manager) snapshot() (*sessions.Session, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone(), m.generation
}
