package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "portforge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	var name string
	err := s.DB().QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='tasks'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "tasks", name)

	err = s.DB().QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='porting_code'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "porting_code", name)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portforge.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	var journalMode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestCloseNilSafe(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}
