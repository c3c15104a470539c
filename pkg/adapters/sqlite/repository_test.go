package sqlite_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aretw0/auticonnect/pkg/adapters/sqlite"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "auticonnect.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestSQLiteRepository_Contract(t *testing.T) {
	ports.RunRepositoryContract(t, func(t *testing.T) ports.Repository {
		return openTemp(t)
	})
}

func TestSQLiteRepository_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	repo, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G", Name: "G", CreatedBy: "F", MaxMembers: 4}))
	require.NoError(t, repo.Close())

	again, err := sqlite.Open(ctx, path)
	require.NoError(t, err, "migrations must be idempotent")
	defer again.Close()

	g, err := again.GetGroup(ctx, "G")
	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, g.Members)
}

func TestSQLiteRepository_ConcurrentJoinsWait(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G", Name: "G", CreatedBy: "F", MaxMembers: domain.MaxGroupMembers}))

	const n = 30
	for i := range n {
		require.NoError(t, repo.CreateUser(ctx, fmt.Sprintf("u%d", i), "U", domain.RoleParticipant))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.AddMember(ctx, fmt.Sprintf("u%d", i), "G")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	g, err := repo.GetGroup(ctx, "G")
	require.NoError(t, err)
	assert.Len(t, g.Members, n+1)
}

func TestSQLiteRepository_UsesWAL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wal.db")
	repo, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
	_, err = os.Stat(path + "-wal")
	assert.NoError(t, err)
}
