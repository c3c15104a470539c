package sqlitemigrate_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/aretw0/auticonnect/internal/storage/sqlitemigrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApply_RunsOncePerFile(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n")},
		"002_b.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"notes.txt": {Data: []byte("ignored")},
	}

	require.NoError(t, sqlitemigrate.Apply(ctx, db, fsys, "."))
	require.NoError(t, sqlitemigrate.Apply(ctx, db, fsys, "."), "second run must be a no-op")

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 2, n)

	_, err := db.Exec(`INSERT INTO a (id) VALUES (1)`)
	assert.NoError(t, err, "down section must not have run")
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nX\n", sqlitemigrate.UpSection("-- +migrate Up\nX\n-- +migrate Down\nY"))
	assert.Equal(t, "plain", sqlitemigrate.UpSection("plain"))
}
