package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRepositoryContract runs a suite of tests against fresh repositories built by
// newRepo, verifying the Repository contract.
func RunRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("CreateUser", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "ana", "Ana", domain.RoleParticipant))
		require.NoError(t, repo.CreateUser(ctx, "fabio", "Fábio", domain.RoleFacilitator))

		assert.ErrorIs(t, repo.CreateUser(ctx, "ana", "Other", domain.RoleFacilitator), domain.ErrAlreadyExists)
		assert.ErrorIs(t, repo.CreateUser(ctx, "x", "X", domain.Role("admin")), domain.ErrInvalidArgument)
		assert.ErrorIs(t, repo.CreateUser(ctx, "y", "", domain.RoleParticipant), domain.ErrInvalidArgument)
		assert.ErrorIs(t, repo.CreateUser(ctx, "", "Z", domain.RoleParticipant), domain.ErrInvalidArgument)

		ana, err := repo.GetUser(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, "Ana", ana.Name)
		assert.Equal(t, domain.RoleParticipant, ana.Role, "duplicate create must not change role")
		require.NotNil(t, ana.Profile)
		assert.Empty(t, ana.Groups)
		assert.False(t, ana.CreatedAt.IsZero())

		fabio, err := repo.GetUser(ctx, "fabio")
		require.NoError(t, err)
		assert.Nil(t, fabio.Profile)
	})

	t.Run("GetUser Missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetUser(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UpdateUserProfile Round Trip", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "ana", "Ana", domain.RoleParticipant))

		want := domain.Profile{
			Age:                30,
			Gender:             domain.GenderFemale,
			EmergencyContacts:  []string{"Maria - Mãe - 123"},
			AcademicHistory:    "Ensino médio",
			Professionals:      []string{"Dr. João - Psicólogo"},
			Interests:          []string{"música", "jogos"},
			AnxietyTriggers:    []string{"ruído"},
			CommunicationStyle: domain.StyleDirect,
		}
		require.NoError(t, repo.UpdateUserProfile(ctx, "ana", domain.FullUpdate(want)))

		got, err := repo.GetUser(ctx, "ana")
		require.NoError(t, err)
		require.NotNil(t, got.Profile)
		assert.Equal(t, want, *got.Profile)
		assert.Empty(t, got.Groups)
		assert.Equal(t, domain.RoleParticipant, got.Role)
	})

	t.Run("UpdateUserProfile Merges", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "ana", "Ana", domain.RoleParticipant))

		age := 25
		require.NoError(t, repo.UpdateUserProfile(ctx, "ana", domain.ProfileUpdate{Age: &age, Interests: []string{"arte"}}))
		style := domain.StyleDetailed
		require.NoError(t, repo.UpdateUserProfile(ctx, "ana", domain.ProfileUpdate{CommunicationStyle: &style}))

		got, err := repo.GetUser(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, 25, got.Profile.Age)
		assert.Equal(t, []string{"arte"}, got.Profile.Interests)
		assert.Equal(t, domain.StyleDetailed, got.Profile.CommunicationStyle)
	})

	t.Run("UpdateUserProfile Errors", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "fabio", "Fábio", domain.RoleFacilitator))
		age := 40

		assert.ErrorIs(t, repo.UpdateUserProfile(ctx, "ghost", domain.ProfileUpdate{Age: &age}), domain.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateUserProfile(ctx, "fabio", domain.ProfileUpdate{Age: &age}), domain.ErrInvalidArgument)
	})

	t.Run("CreateGroup", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "fabio", "Fábio", domain.RoleFacilitator))

		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{
			ID: "g1", Name: "Amigos", Theme: "Jogos", Description: "Jogos de tabuleiro", CreatedBy: "fabio", MaxMembers: 8,
		}))

		g, err := repo.GetGroup(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"fabio"}, g.Members)
		assert.Equal(t, 8, g.MaxMembers)
		assert.True(t, g.MediationEnabled)
		assert.Equal(t, "Jogos de tabuleiro", g.Description)

		creator, err := repo.GetUser(ctx, "fabio")
		require.NoError(t, err)
		assert.Equal(t, []string{"g1"}, creator.Groups)

		assert.ErrorIs(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g1", Name: "Dup", CreatedBy: "fabio", MaxMembers: 5}), domain.ErrAlreadyExists)
		assert.ErrorIs(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g2", Name: "Tiny", CreatedBy: "fabio", MaxMembers: 1}), domain.ErrInvalidArgument)
		assert.ErrorIs(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g3", Name: "Orphan", CreatedBy: "ghost", MaxMembers: 5}), domain.ErrNotFound)

		creator, err = repo.GetUser(ctx, "fabio")
		require.NoError(t, err)
		assert.Equal(t, []string{"g1"}, creator.Groups, "failed creations must not touch the creator")

		_, err = repo.GetGroup(ctx, "g2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListGroups Insertion Order", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "fabio", "Fábio", domain.RoleFacilitator))

		groups, err := repo.ListGroups(ctx)
		require.NoError(t, err)
		assert.Empty(t, groups)

		for _, id := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: id, Name: id, CreatedBy: "fabio", MaxMembers: 4}))
		}

		groups, err = repo.ListGroups(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 3)
		assert.Equal(t, "zeta", groups[0].ID)
		assert.Equal(t, "alpha", groups[1].ID)
		assert.Equal(t, "mid", groups[2].ID)
	})

	t.Run("AddMember Idempotent", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "fabio", "Fábio", domain.RoleFacilitator))
		require.NoError(t, repo.CreateUser(ctx, "ana", "Ana", domain.RoleParticipant))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g", Name: "G", CreatedBy: "fabio", MaxMembers: 5}))

		require.NoError(t, repo.AddMember(ctx, "ana", "g"))
		require.NoError(t, repo.AddMember(ctx, "ana", "g"))

		g, err := repo.GetGroup(ctx, "g")
		require.NoError(t, err)
		assert.Equal(t, []string{"fabio", "ana"}, g.Members)

		ana, err := repo.GetUser(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, []string{"g"}, ana.Groups)
	})

	t.Run("AddMember Capacity", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
		require.NoError(t, repo.CreateUser(ctx, "A", "Ana", domain.RoleParticipant))
		require.NoError(t, repo.CreateUser(ctx, "B", "Bruno", domain.RoleParticipant))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G", Name: "G", CreatedBy: "F", MaxMembers: 2}))

		require.NoError(t, repo.AddMember(ctx, "A", "G"))
		assert.ErrorIs(t, repo.AddMember(ctx, "B", "G"), domain.ErrGroupFull)

		g, err := repo.GetGroup(ctx, "G")
		require.NoError(t, err)
		assert.Equal(t, []string{"F", "A"}, g.Members)

		b, err := repo.GetUser(ctx, "B")
		require.NoError(t, err)
		assert.Empty(t, b.Groups)

		assert.NoError(t, repo.AddMember(ctx, "A", "G"), "existing member re-joining a full group is a no-op")
	})

	t.Run("AddMember Not Found", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G", Name: "G", CreatedBy: "F", MaxMembers: 3}))

		assert.ErrorIs(t, repo.AddMember(ctx, "ghost", "G"), domain.ErrNotFound)
		assert.ErrorIs(t, repo.AddMember(ctx, "F", "nowhere"), domain.ErrNotFound)

		g, err := repo.GetGroup(ctx, "G")
		require.NoError(t, err)
		assert.Equal(t, []string{"F"}, g.Members)
	})

	t.Run("AddMember Concurrent", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G", Name: "G", CreatedBy: "F", MaxMembers: 5}))

		const joiners = 12
		for i := range joiners {
			require.NoError(t, repo.CreateUser(ctx, fmt.Sprintf("p%d", i), "P", domain.RoleParticipant))
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			ok   int
			full int
		)
		for i := range joiners {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				err := repo.AddMember(ctx, id, "G")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case assert.ErrorIs(t, err, domain.ErrGroupFull):
					full++
				}
			}(fmt.Sprintf("p%d", i))
		}
		wg.Wait()

		assert.Equal(t, 4, ok)
		assert.Equal(t, joiners-4, full)

		g, err := repo.GetGroup(ctx, "G")
		require.NoError(t, err)
		assert.Len(t, g.Members, 5)
		assert.Equal(t, "F", g.Members[0])
	})

	t.Run("Returned Values Are Copies", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G", Name: "G", CreatedBy: "F", MaxMembers: 3}))

		g, err := repo.GetGroup(ctx, "G")
		require.NoError(t, err)
		g.Members[0] = "mallory"

		again, err := repo.GetGroup(ctx, "G")
		require.NoError(t, err)
		assert.Equal(t, []string{"F"}, again.Members)
	})

	t.Run("CreateActivity", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G", Name: "G", CreatedBy: "F", MaxMembers: 3}))

		id, err := repo.CreateActivity(ctx, domain.NewActivity{
			GroupID: "G", Type: domain.ActivityDiscussion, Title: "Roda", Description: "Conversa", CreatedBy: "F",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		_, err = repo.CreateActivity(ctx, domain.NewActivity{GroupID: "G", Type: domain.ActivityDiscussion, Title: "T", CreatedBy: "F", DurationMinutes: 200})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		_, err = repo.CreateActivity(ctx, domain.NewActivity{GroupID: "G", Type: domain.ActivityDiscussion, Title: "T", CreatedBy: "F", DurationMinutes: 4})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		_, err = repo.CreateActivity(ctx, domain.NewActivity{GroupID: "G", Type: "karaoke", Title: "T", CreatedBy: "F"})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		_, err = repo.CreateActivity(ctx, domain.NewActivity{GroupID: "nowhere", Type: domain.ActivityDiscussion, Title: "T", CreatedBy: "F"})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		acts, err := repo.ListActivitiesForUser(ctx, "F")
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, id, acts[0].ID)
		assert.Equal(t, domain.DefaultActivityDuration, acts[0].DurationMinutes)
		assert.Equal(t, domain.ActivityScheduled, acts[0].Status)
		assert.True(t, acts[0].GuidanceEnabled)
	})

	t.Run("ListActivitiesForUser", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "F", "Fábio", domain.RoleFacilitator))
		require.NoError(t, repo.CreateUser(ctx, "A", "Ana", domain.RoleParticipant))
		require.NoError(t, repo.CreateUser(ctx, "B", "Bruno", domain.RoleParticipant))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G1", Name: "G1", CreatedBy: "F", MaxMembers: 3}))
		require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "G2", Name: "G2", CreatedBy: "F", MaxMembers: 3}))
		require.NoError(t, repo.AddMember(ctx, "A", "G1"))

		first, err := repo.CreateActivity(ctx, domain.NewActivity{GroupID: "G1", Type: domain.ActivitySocialGame, Title: "Jogo", CreatedBy: "F", DurationMinutes: 30})
		require.NoError(t, err)
		_, err = repo.CreateActivity(ctx, domain.NewActivity{GroupID: "G2", Type: domain.ActivityDiscussion, Title: "Outra", CreatedBy: "F"})
		require.NoError(t, err)
		second, err := repo.CreateActivity(ctx, domain.NewActivity{GroupID: "G1", Type: domain.ActivityInterestSharing, Title: "Hobbies", CreatedBy: "F"})
		require.NoError(t, err)

		acts, err := repo.ListActivitiesForUser(ctx, "A")
		require.NoError(t, err)
		require.Len(t, acts, 2)
		assert.Equal(t, first, acts[0].ID)
		assert.Equal(t, second, acts[1].ID)
		assert.Equal(t, 30, acts[0].DurationMinutes)

		none, err := repo.ListActivitiesForUser(ctx, "B")
		require.NoError(t, err)
		assert.Empty(t, none)

		ghost, err := repo.ListActivitiesForUser(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, ghost)

		all, err := repo.ListActivitiesForUser(ctx, "F")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("TouchUser", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateUser(ctx, "A", "Ana", domain.RoleParticipant))
		before, err := repo.GetUser(ctx, "A")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, repo.TouchUser(ctx, "A"))

		after, err := repo.GetUser(ctx, "A")
		require.NoError(t, err)
		assert.True(t, after.LastActive.After(before.LastActive))

		assert.NoError(t, repo.TouchUser(ctx, "ghost"))
	})
}
