package repofakes

import (
	"sync"

	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory implementation of sessions.Repo
type FakeSessionRepo struct {
	mu    sync.RWMutex
	slots map[string]string

	// SetErr, when non-nil, is returned by every Set call
	SetErr error
	// Writes counts successful Set calls
	Writes int
}

// NewFakeSessionRepo creates a new in-memory session repository
func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		slots: make(map[string]string),
	}
}

func (r *FakeSessionRepo) Get(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.slots[key]
	if !ok {
		return "", apperrors.ErrSlotNotFound
	}
	return value, nil
}

func (r *FakeSessionRepo) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SetErr != nil {
		return r.SetErr
	}
	r.slots[key] = value
	r.Writes++
	return nil
}

func (r *FakeSessionRepo) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.slots, key) // Already doesn't exist, no error
	return nil
}

// Snapshot returns a copy of every stored slot
func (r *FakeSessionRepo) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := make(map[string]string, len(r.slots))
	for k, v := range r.slots {
		c[k] = v
	}
	return c
}
