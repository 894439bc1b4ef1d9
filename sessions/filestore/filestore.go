// Package filestore persists the durable session record as a JSON file, one
// entry per slot, optionally sealing each value with a key derived from a secret.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var _ sessions.Repo = (*Store)(nil)

// Store is a sessions.Repo backed by a single file. Every Set and Delete
// rewrites the file through a temporary file and rename.
type Store struct {
	path   string
	sealer *sealer
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store) error

// WithSecret seals slot values using a key derived from secret. An empty secret is ignored.
func WithSecret(secret string) Option {
	return func(s *Store) error {
		if secret == "" {
			return nil
		}
		sl, err := newSealer(secret)
		if err != nil {
			return err
		}
		s.sealer = sl
		return nil
	}
}

// New creates a file store at path. The file is created on first write.
func New(path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("[filestore.New] path is required")
	}
	s := &Store{path: path}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "[filestore.New] option")
		}
	}
	return s, nil
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if err != nil {
		return "", err
	}
	value, ok := slots[key]
	if !ok {
		return "", apperrors.ErrSlotNotFound
	}
	if s.sealer == nil {
		return value, nil
	}
	plain, err := s.sealer.open(key, value)
	if err != nil {
		return "", errors.Wrapf(apperrors.Join(apperrors.ErrInvalidRecord, err), "[filestore.Get] open slot %s", key)
	}
	return plain, nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if apperrors.Is(err, apperrors.ErrInvalidRecord) {
		log.Warn().Err(err).Str("path", s.path).Msg("filestore: replacing unreadable session file")
		slots = make(map[string]string)
	} else if err != nil {
		return err
	}
	if s.sealer != nil {
		if value, err = s.sealer.seal(key, value); err != nil {
			return errors.Wrapf(err, "[filestore.Set] seal slot %s", key)
		}
	}
	slots[key] = value
	return s.write(slots)
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if apperrors.Is(err, apperrors.ErrInvalidRecord) {
		log.Warn().Err(err).Str("path", s.path).Msg("filestore: removing unreadable session file")
		return s.remove()
	}
	if err != nil {
		return err
	}
	if _, ok := slots[key]; !ok {
		return nil
	}
	delete(slots, key)
	if len(slots) == 0 {
		return s.remove()
	}
	return s.write(slots)
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[filestore.Delete] remove file")
	}
	return nil
}

func (s *Store) read() (map[string]string, error) {
	slots := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return slots, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[filestore] read")
	}
	if len(data) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, errors.Wrap(apperrors.Join(apperrors.ErrInvalidRecord, err), "[filestore] decode")
	}
	return slots, nil
}

func (s *Store) write(slots map[string]string) error {
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore] encode")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[filestore] create directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "[filestore] create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore] write temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore] chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore] close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "[filestore] rename")
	}
	return nil
}
