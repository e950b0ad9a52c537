package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitBootstrapsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Init(path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"runs", "run_scores"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, table, name)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Init(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Init(path)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
