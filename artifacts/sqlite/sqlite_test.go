package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func seedDB(t *testing.T, path string) {
	t.Helper()
	db, err := sqlx.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE history (url TEXT, visit_count INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO history (url, visit_count) VALUES (?, ?)`, "https://example.com", 3)
	require.NoError(t, err)
}

func TestQueryReturnsRowsAsMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	seedDB(t, path)

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := Query(context.Background(), db, `SELECT url, visit_count FROM history`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "https://example.com", rows[0]["url"])
}

func TestOpenRejectsMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.db"))
	require.Error(t, err)
}
