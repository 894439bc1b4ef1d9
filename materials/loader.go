package materials

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-materials-client/api"
	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/metrics"
	"github.com/jrsteele09/go-materials-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultPageSize is the number of materials requested per page.
const DefaultPageSize = 20

// maxAttempts bounds the fetches made by one LoadNext: the first try and a
// single retry after a successful refresh.
const maxAttempts = 2

// Fetcher retrieves a page of materials.
type Fetcher interface {
	GetMaterials(ctx context.Context, tok *oauth2.Token, filter api.MaterialsFilter) (*api.MaterialsPage, error)
}

// SessionProvider supplies the bearer token and rotates it when the API rejects it.
type SessionProvider interface {
	Token() (*oauth2.Token, error)
	Refresh(ctx context.Context) (*sessions.Session, error)
}

// Kind classifies the outcome of LoadNext.
type Kind int

const (
	// Skipped means nothing was fetched: a load was in flight or the list is exhausted.
	Skipped Kind = iota
	// Appended means a page was fetched and appended.
	Appended
	// AuthRetryExhausted means the token was rejected and could not be renewed.
	// The caller should log out.
	AuthRetryExhausted
	// TransportError means the fetch failed for any other reason.
	TransportError
)

func (k Kind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Appended:
		return "appended"
	case AuthRetryExhausted:
		return "auth_retry_exhausted"
	case TransportError:
		return "transport_error"
	}
	return "unknown"
}

// Cursor tracks how far the list has been loaded.
type Cursor struct {
	Offset   int  // Number of materials requested so far
	PageSize int  // Fixed for the lifetime of the loader
	HasMore  bool // False once the server reports nothing remaining
}

// Result is returned by LoadNext.
type Result struct {
	Kind   Kind
	Items  []api.Material // The page appended by this call
	Cursor Cursor         // The cursor after the call
	Err    error          // Set for AuthRetryExhausted and TransportError
}

// Loader incrementally loads the materials list one page at a time.
// Items are only ever appended; a fresh list needs a fresh Loader.
type Loader struct {
	fetcher Fetcher
	session SessionProvider
	types   []int
	metrics metrics.Recorder

	loading atomic.Bool

	mu     sync.RWMutex
	cursor Cursor
	items  []api.Material
}

// LoaderOption defines a function type to modify the Loader instance.
type LoaderOption func(*Loader)

// WithPageSize sets the page size. Non-positive values are ignored.
func WithPageSize(size int) LoaderOption {
	return func(l *Loader) {
		if size > 0 {
			l.cursor.PageSize = size
		}
	}
}

// WithTypes sets the material types requested.
func WithTypes(types []int) LoaderOption {
	return func(l *Loader) {
		l.types = append([]int(nil), types...)
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder metrics.Recorder) LoaderOption {
	return func(l *Loader) {
		l.metrics = recorder
	}
}

// NewLoader creates a loader positioned at the start of the list.
func NewLoader(fetcher Fetcher, session SessionProvider, options ...LoaderOption) (*Loader, error) {
	if fetcher == nil {
		return nil, errors.New("[NewLoader] fetcher is required")
	}
	if session == nil {
		return nil, errors.New("[NewLoader] session provider is required")
	}

	l := &Loader{
		fetcher: fetcher,
		session: session,
		types:   []int{1},
		metrics: metrics.Noop{},
		cursor:  Cursor{Offset: 0, PageSize: DefaultPageSize, HasMore: true},
	}
	for _, opt := range options {
		opt(l)
	}
	return l, nil
}

// Cursor returns the current cursor.
func (l *Loader) Cursor() Cursor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cursor
}

// Items returns a copy of every material loaded so far.
func (l *Loader) Items() []api.Material {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]api.Material(nil), l.items...)
}

// Loading reports whether a page fetch is in flight.
func (l *Loader) Loading() bool {
	return l.loading.Load()
}

// Ready reports whether an intersection should request the next page.
func (l *Loader) Ready() bool {
	return !l.Loading() && l.Cursor().HasMore
}

// LoadNext fetches the page at the cursor and appends it. It never blocks on
// another load: a concurrent call returns Skipped immediately. On any failure
// the cursor and the list are left untouched so the same page can be retried.
func (l *Loader) LoadNext(ctx context.Context) Result {
	if !l.loading.CompareAndSwap(false, true) {
		log.Debug().Msg("LoadNext: load already in flight")
		return Result{Kind: Skipped, Cursor: l.Cursor()}
	}
	defer l.loading.Store(false)

	cursor := l.Cursor()
	if !cursor.HasMore {
		return Result{Kind: Skipped, Cursor: cursor}
	}

	filter := api.MaterialsFilter{Skip: cursor.Offset, Limit: cursor.PageSize, Types: l.types}
	page, err := l.fetch(ctx, filter)
	switch {
	case err == nil:
	case apperrors.Is(err, apperrors.ErrAuthExpired), apperrors.Is(err, apperrors.ErrRefreshFailed):
		log.Err(err).Int("offset", cursor.Offset).Msg("LoadNext: authentication could not be renewed")
		l.metrics.RecordPageFailure(AuthRetryExhausted.String())
		return Result{Kind: AuthRetryExhausted, Cursor: cursor, Err: err}
	default:
		log.Err(err).Int("offset", cursor.Offset).Msg("LoadNext: failed to load materials")
		l.metrics.RecordPageFailure(TransportError.String())
		return Result{Kind: TransportError, Cursor: cursor, Err: err}
	}

	l.mu.Lock()
	l.items = append(l.items, page.Materials...)
	l.cursor.Offset += l.cursor.PageSize
	l.cursor.HasMore = *page.RemainingCount > 0
	cursor = l.cursor
	l.mu.Unlock()

	l.metrics.RecordPageLoaded(len(page.Materials))
	log.Debug().
		Int("items", len(page.Materials)).
		Int("offset", cursor.Offset).
		Bool("hasMore", cursor.HasMore).
		Msg("LoadNext: page appended")

	return Result{Kind: Appended, Items: page.Materials, Cursor: cursor}
}

// fetch issues the request, refreshing the token and retrying once when it is rejected.
func (l *Loader) fetch(ctx context.Context, filter api.MaterialsFilter) (*api.MaterialsPage, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if _, err := l.session.Refresh(ctx); err != nil {
				return nil, apperrors.Join(apperrors.ErrRefreshFailed, err)
			}
			l.metrics.RecordAuthRetry()
		}

		tok, err := l.session.Token()
		if err != nil {
			return nil, apperrors.Join(apperrors.ErrAuthExpired, err)
		}

		started := time.Now()
		page, err := l.fetcher.GetMaterials(ctx, tok, filter)
		l.metrics.RecordFetchLatency(time.Since(started))
		if err == nil {
			if page == nil || page.RemainingCount == nil {
				return nil, apperrors.ErrMalformedResponse
			}
			return page, nil
		}
		if !apperrors.Is(err, apperrors.ErrAuthExpired) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
