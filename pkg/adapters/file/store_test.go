package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/auticonnect/pkg/adapters/file"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestSessionStore_UnsafeUserIDs(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	ids := []string{"../escape", "tg:123/456", "ação"}
	for _, id := range ids {
		require.NoError(t, store.Save(ctx, id, domain.NewSession(id, domain.DialogRegistration, time.Now())))
	}

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, listed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(ids))
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSessionStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-123.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "!!.json"), []byte("{}"), 0o600))

	ids, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSessionStore_MissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids)

	_, err = store.Load(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "u1", domain.NewSession("u1", domain.DialogProfile, time.Now())))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{broken"), 0o600))

	_, err = store.Load(ctx, "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
