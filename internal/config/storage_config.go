package config

import (
	"os"
	"path/filepath"
)

const (
	sessionFileVar = "SESSION_FILE"
	sessionKeyVar  = "SESSION_KEY"
)

type Storage struct {
	values values
}

var _ StorageConfig = Storage{}

// GetSessionFile returns the path of the durable session record.
func (s Storage) GetSessionFile() string {
	return s.values.get(sessionFileVar, defaultSessionFile())
}

// GetSessionKey returns the secret used to encrypt the session record. Empty disables encryption.
func (s Storage) GetSessionKey() string {
	return s.values.get(sessionKeyVar, "")
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, "materials", "session.json")
}
