package apifakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-materials-client/api"
	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/internal/utils"
	"golang.org/x/oauth2"
)

// FakeAPI is a scriptable stand-in for api.Client. Unset funcs reject the call.
type FakeAPI struct {
	mu sync.Mutex

	LoginFunc        func(ctx context.Context, username, password string) (*api.AuthResponse, error)
	RefreshFunc      func(ctx context.Context, accessToken, refreshToken string) (*api.AuthResponse, error)
	GetMaterialsFunc func(ctx context.Context, tok *oauth2.Token, filter api.MaterialsFilter) (*api.MaterialsPage, error)

	loginCalls     int
	refreshCalls   int
	materialsCalls int
	filters        []api.MaterialsFilter
	bearers        []string
}

// AuthOK builds a successful login or refresh response.
func AuthOK(accessToken, refreshToken, profile string) *api.AuthResponse {
	return &api.AuthResponse{
		Success:      true,
		Token:        utils.Ptr(accessToken),
		RefreshToken: utils.Ptr(refreshToken),
		User:         []byte(profile),
	}
}

// Page builds a materials page with the given remaining count.
func Page(remaining int, items ...api.Material) *api.MaterialsPage {
	if items == nil {
		items = []api.Material{}
	}
	return &api.MaterialsPage{Materials: items, RemainingCount: &remaining}
}

func (f *FakeAPI) Login(ctx context.Context, username, password string) (*api.AuthResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.LoginFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return fn(ctx, username, password)
}

func (f *FakeAPI) Refresh(ctx context.Context, accessToken, refreshToken string) (*api.AuthResponse, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.RefreshFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, apperrors.ErrAuthExpired
	}
	return fn(ctx, accessToken, refreshToken)
}

func (f *FakeAPI) GetMaterials(ctx context.Context, tok *oauth2.Token, filter api.MaterialsFilter) (*api.MaterialsPage, error) {
	f.mu.Lock()
	f.materialsCalls++
	f.filters = append(f.filters, filter)
	if tok != nil {
		f.bearers = append(f.bearers, tok.AccessToken)
	}
	fn := f.GetMaterialsFunc
	f.mu.Unlock()

	if fn == nil {
		return nil, apperrors.ErrAuthExpired
	}
	return fn(ctx, tok, filter)
}

// LoginCalls returns the number of Login calls made.
func (f *FakeAPI) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

// RefreshCalls returns the number of Refresh calls made.
func (f *FakeAPI) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

// MaterialsCalls returns the number of GetMaterials calls made.
func (f *FakeAPI) MaterialsCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.materialsCalls
}

// Filters returns every filter passed to GetMaterials, in call order.
func (f *FakeAPI) Filters() []api.MaterialsFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.MaterialsFilter(nil), f.filters...)
}

// Bearers returns the access token presented on each GetMaterials call.
func (f *FakeAPI) Bearers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bearers...)
}
