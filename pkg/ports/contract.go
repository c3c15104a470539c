package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	userID := "contract-user-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(userID, domain.DialogProfile, time.Now())
		s.Step = 3
		s.Answers["age"] = 30
		s.Answers["gender"] = "feminino"

		require.NoError(t, store.Save(ctx, userID, s), "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, userID, loaded.UserID)
		assert.Equal(t, domain.DialogProfile, loaded.Dialog)
		assert.Equal(t, 3, loaded.Step)
		assert.Equal(t, "feminino", loaded.Answers["gender"])
		// Serializing stores may turn ints into float64.
		assert.EqualValues(t, 30, loaded.Answers["age"])
	})

	t.Run("Save Replaces", func(t *testing.T) {
		first := domain.NewSession(userID, domain.DialogProfile, time.Now())
		first.Answers["age"] = 41
		require.NoError(t, store.Save(ctx, userID, first))

		second := domain.NewSession(userID, domain.DialogGroupCreation, time.Now())
		require.NoError(t, store.Save(ctx, userID, second))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.DialogGroupCreation, loaded.Dialog)
		assert.NotContains(t, loaded.Answers, "age")
	})

	t.Run("Saved Copy Is Isolated", func(t *testing.T) {
		s := domain.NewSession(userID, domain.DialogRegistration, time.Now())
		s.Answers["name"] = "Ana"
		require.NoError(t, store.Save(ctx, userID, s))

		s.Answers["name"] = "changed after save"
		s.Step = 7

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", loaded.Answers["name"])
		assert.Equal(t, 0, loaded.Step)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, userID, domain.NewSession(userID, domain.DialogRegistration, time.Now())))

		require.NoError(t, store.Delete(ctx, userID), "Delete should not return error")

		_, err := store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, userID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, domain.DialogRegistration, time.Now()))
		_ = store.Save(ctx, id2, domain.NewSession(id2, domain.DialogRegistration, time.Now()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
