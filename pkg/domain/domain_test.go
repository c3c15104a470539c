package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileApply_PreservesNilFields(t *testing.T) {
	base := domain.Profile{
		Age:       30,
		Gender:    domain.GenderFemale,
		Interests: []string{"música"},
	}
	style := domain.StyleDetailed
	out := base.Apply(domain.ProfileUpdate{CommunicationStyle: &style})

	assert.Equal(t, 30, out.Age)
	assert.Equal(t, domain.GenderFemale, out.Gender)
	assert.Equal(t, []string{"música"}, out.Interests)
	assert.Equal(t, domain.StyleDetailed, out.CommunicationStyle)
	assert.Empty(t, base.CommunicationStyle, "receiver must not be modified")
}

func TestProfileApply_EmptySliceClears(t *testing.T) {
	base := domain.Profile{AnxietyTriggers: []string{"ruído"}}
	out := base.Apply(domain.ProfileUpdate{AnxietyTriggers: []string{}})
	assert.Empty(t, out.AnxietyTriggers)
	assert.Equal(t, []string{"ruído"}, base.AnxietyTriggers)
}

func TestNewUser(t *testing.T) {
	now := time.Now()
	p := domain.NewUser("1", "Ana", domain.RoleParticipant, now)
	require.NotNil(t, p.Profile)
	assert.Empty(t, p.Groups)

	f := domain.NewUser("2", "Bia", domain.RoleFacilitator, now)
	assert.Nil(t, f.Profile)
}

func TestSessionCloneIsolatesAnswers(t *testing.T) {
	s := domain.NewSession("u", domain.DialogProfile, time.Now())
	s.Answers["age"] = 30

	c := s.Clone()
	c.Answers["gender"] = "feminino"
	c.Step = 2

	assert.NotContains(t, s.Answers, "gender")
	assert.Equal(t, 0, s.Step)
}

func TestSessionStale(t *testing.T) {
	now := time.Now()
	s := domain.NewSession("u", domain.DialogRegistration, now.Add(-time.Hour))
	assert.True(t, s.Stale(now, 30*time.Minute))
	assert.False(t, s.Stale(now, 2*time.Hour))
	assert.False(t, s.Stale(now, 0))
}

func TestActivityBuildDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := domain.NewActivity{GroupID: "g", Type: domain.ActivitySocialGame, Title: "Jogo"}.Build("a1", now)
	assert.Equal(t, domain.DefaultActivityDuration, a.DurationMinutes)
	assert.Equal(t, now, a.ScheduledAt)
	assert.Equal(t, domain.ActivityScheduled, a.Status)
	assert.True(t, a.GuidanceEnabled)
}

func TestErrorsUnwrap(t *testing.T) {
	err := &domain.AuthorizationError{Action: "join", Reason: "cheio", Err: domain.ErrGroupFull}
	assert.ErrorIs(t, err, domain.ErrGroupFull)

	cerr := &domain.CommitError{Dialog: domain.DialogGroupCreation, Err: domain.ErrNotFound}
	assert.ErrorIs(t, cerr, domain.ErrNotFound)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "Participante", domain.RoleParticipant.Label())
	assert.Equal(t, "Auxiliar Terapêutico (AT)", domain.RoleFacilitator.Label())
	assert.Equal(t, "visitante", domain.Role("visitante").Label())
}
