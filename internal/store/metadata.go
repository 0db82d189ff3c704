package store

import (
	"database/sql"

	"gitlab.com/tozd/go/errors"
)

// Metadata keys.
const (
	MetaSchemaVersion = "schema_version"
	MetaToolVersion   = "tool_version"
)

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return errors.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Errorf("get metadata %q: %w", key, err)
	}
	return value, nil
}
