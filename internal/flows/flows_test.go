package flows_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/auticonnect/internal/flows"
	"github.com/aretw0/auticonnect/internal/runtime"
	"github.com/aretw0/auticonnect/pkg/adapters/memory"
	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type input struct {
	kind domain.EventKind
	raw  string
}

func text(raw string) input   { return input{domain.EventText, raw} }
func choice(raw string) input { return input{domain.EventChoice, raw} }

func setup(t *testing.T) (*runtime.Engine, *memory.Repository) {
	t.Helper()
	set, err := flows.Dialogs()
	require.NoError(t, err)
	repo := memory.NewRepository()
	return runtime.NewEngine(set, repo), repo
}

// run drives a dialog to completion and commits it.
func run(t *testing.T, e *runtime.Engine, kind domain.DialogKind, userID string, inputs ...input) dialog.Outcome {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.Authorize(ctx, kind, userID))
	s, err := e.Start(kind, userID, time.Now())
	require.NoError(t, err)

	for i, in := range inputs {
		res, err := e.Submit(ctx, s, in.kind, in.raw)
		require.NoError(t, err, "input %d (%q)", i, in.raw)
		s = res.Session
		if res.Done {
			require.Equal(t, len(inputs)-1, i, "dialog finished early")
			out, err := e.Commit(ctx, s)
			require.NoError(t, err)
			return out
		}
	}
	t.Fatalf("dialog %s did not complete", kind)
	return dialog.Outcome{}
}

func TestDialogs_AllRegistered(t *testing.T) {
	set, err := flows.Dialogs()
	require.NoError(t, err)
	for _, k := range []domain.DialogKind{
		domain.DialogRegistration, domain.DialogProfile,
		domain.DialogGroupCreation, domain.DialogActivityCreation,
	} {
		assert.Contains(t, set, k)
	}
}

func TestRegistration_ParticipantChainsIntoProfile(t *testing.T) {
	e, repo := setup(t)
	out := run(t, e, domain.DialogRegistration, "ana", text("Ana"), choice(string(domain.RoleParticipant)))
	assert.Equal(t, domain.DialogProfile, out.Chain)

	u, err := repo.GetUser(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, domain.RoleParticipant, u.Role)
	require.NotNil(t, u.Profile)
}

func TestRegistration_FacilitatorTerminal(t *testing.T) {
	e, _ := setup(t)
	out := run(t, e, domain.DialogRegistration, "f", text("Fábio"), choice(string(domain.RoleFacilitator)))
	assert.Empty(t, out.Chain)
	assert.Contains(t, out.Reply.Text, "/criar_grupo")
}

func TestRegistration_RolePromptUsesName(t *testing.T) {
	e, _ := setup(t)
	ctx := context.Background()
	s, err := e.Start(domain.DialogRegistration, "ana", time.Now())
	require.NoError(t, err)
	res, err := e.Submit(ctx, s, domain.EventText, "  Ana  ")
	require.NoError(t, err)

	reply, err := e.Prompt(ctx, res.Session)
	require.NoError(t, err)
	assert.Equal(t, "Obrigado, Ana! Qual é o seu papel?", reply.Text)
	require.Len(t, reply.Buttons, 2)
	assert.Equal(t, string(domain.RoleParticipant), reply.Buttons[0].Token)
}

func TestProfile_RoundTrip(t *testing.T) {
	e, repo := setup(t)
	run(t, e, domain.DialogRegistration, "ana", text("Ana"), choice(string(domain.RoleParticipant)))
	run(t, e, domain.DialogProfile, "ana",
		text("30"),
		choice(string(domain.GenderFemale)),
		text("Maria - Mãe - 123\n\n"),
		text("Ensino médio"),
		text("Dr. João - Psicólogo"),
		text("música, jogos"),
		text("ruído"),
		choice(string(domain.StyleDirect)),
	)

	u, err := repo.GetUser(context.Background(), "ana")
	require.NoError(t, err)
	assert.Empty(t, u.Groups)
	assert.Equal(t, &domain.Profile{
		Age:                30,
		Gender:             domain.GenderFemale,
		EmergencyContacts:  []string{"Maria - Mãe - 123"},
		AcademicHistory:    "Ensino médio",
		Professionals:      []string{"Dr. João - Psicólogo"},
		Interests:          []string{"música", "jogos"},
		AnxietyTriggers:    []string{"ruído"},
		CommunicationStyle: domain.StyleDirect,
	}, u.Profile)
}

func TestProfile_AgeValidation(t *testing.T) {
	e, _ := setup(t)
	ctx := context.Background()
	s, err := e.Start(domain.DialogProfile, "ana", time.Now())
	require.NoError(t, err)

	_, err = e.Submit(ctx, s, domain.EventText, "abc")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "apenas números")

	_, err = e.Submit(ctx, s, domain.EventText, "200")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "entre 5 e 100")

	res, err := e.Submit(ctx, s, domain.EventText, "30")
	require.NoError(t, err)
	assert.Equal(t, "gender", e.CurrentStep(res.Session))
}

func TestProfile_GuardRejectsFacilitator(t *testing.T) {
	e, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, "f", "Fábio", domain.RoleFacilitator))

	var aerr *domain.AuthorizationError
	require.ErrorAs(t, e.Authorize(ctx, domain.DialogProfile, "f"), &aerr)
	require.ErrorAs(t, e.Authorize(ctx, domain.DialogProfile, "nobody"), &aerr)
	assert.Equal(t, flows.MsgRegisterFirst, aerr.Reason)
}

func TestGroupCreation(t *testing.T) {
	e, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, "f", "Fábio", domain.RoleFacilitator))
	require.NoError(t, repo.CreateUser(ctx, "a", "Ana", domain.RoleParticipant))

	var aerr *domain.AuthorizationError
	require.ErrorAs(t, e.Authorize(ctx, domain.DialogGroupCreation, "a"), &aerr)
	assert.Contains(t, aerr.Reason, "apenas Auxiliares")

	out := run(t, e, domain.DialogGroupCreation, "f",
		text("Gamers"), text("videogames"), text("Jogar junto"), text("8"))
	assert.Contains(t, out.Reply.Text, "Grupo 'Gamers' criado")

	groups, err := repo.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "videogames", g.Theme)
	assert.Equal(t, 8, g.MaxMembers)
	assert.Equal(t, []string{"f"}, g.Members)
}

func TestGroupCreation_MaxMembersBounds(t *testing.T) {
	e, _ := setup(t)
	ctx := context.Background()
	s := &domain.Session{UserID: "f", Dialog: domain.DialogGroupCreation, Step: 3, Answers: map[string]any{}}
	for _, raw := range []string{"1", "51", "dez"} {
		_, err := e.Submit(ctx, s, domain.EventText, raw)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, "Por favor, escolha um número entre 2 e 50.", verr.Reason)
	}
}

func TestActivityCreation(t *testing.T) {
	e, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, "f", "Fábio", domain.RoleFacilitator))
	require.NoError(t, repo.CreateUser(ctx, "g", "Gil", domain.RoleFacilitator))

	var aerr *domain.AuthorizationError
	require.ErrorAs(t, e.Authorize(ctx, domain.DialogActivityCreation, "f"), &aerr)
	assert.Contains(t, aerr.Reason, "Crie um grupo primeiro")

	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g1", Name: "Gamers", CreatedBy: "f", MaxMembers: 5}))
	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g2", Name: "Outro", CreatedBy: "g", MaxMembers: 5}))

	s, err := e.Start(domain.DialogActivityCreation, "f", time.Now())
	require.NoError(t, err)
	reply, err := e.Prompt(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []domain.Button{{Label: "Gamers", Token: "g1"}}, reply.Buttons, "only owned groups are offered")

	_, err = e.Submit(ctx, s, domain.EventChoice, "g2")
	require.Error(t, err)

	out := run(t, e, domain.DialogActivityCreation, "f",
		choice("g1"),
		choice(string(domain.ActivitySocialGame)),
		text("Quiz"),
		text("Perguntas e respostas"),
		text("45"),
	)
	assert.Contains(t, out.Reply.Text, "Atividade 'Quiz' criada com sucesso para o grupo 'Gamers'")

	acts, err := repo.ListActivitiesForUser(ctx, "f")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, domain.ActivitySocialGame, acts[0].Type)
	assert.Equal(t, 45, acts[0].DurationMinutes)
	assert.Equal(t, "g1", acts[0].GroupID)
}

func TestActivityCreation_TitlePromptShowsTypeLabel(t *testing.T) {
	e, _ := setup(t)
	s := &domain.Session{
		UserID:  "f",
		Dialog:  domain.DialogActivityCreation,
		Step:    2,
		Answers: map[string]any{"group": "g1", "type": string(domain.ActivityDiscussion)},
	}
	reply, err := e.Prompt(context.Background(), s)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Tipo de atividade: Discussão temática")
}

func TestCommit_DecodesJSONShapedAnswers(t *testing.T) {
	e, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, "ana", "Ana", domain.RoleParticipant))

	// Values as they come back from a JSON session store.
	s := &domain.Session{UserID: "ana", Dialog: domain.DialogProfile, Answers: map[string]any{
		"age":                 float64(30),
		"gender":              "feminino",
		"emergency_contacts":  []any{"Maria - Mãe - 123"},
		"academic_history":    "Ensino médio",
		"professionals":       []any{"Dr. João - Psicólogo"},
		"interests":           []any{"música"},
		"anxiety_triggers":    []any{"ruído"},
		"communication_style": "detailed",
	}}
	_, err := e.Commit(ctx, s)
	require.NoError(t, err)

	u, err := repo.GetUser(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 30, u.Profile.Age)
	assert.Equal(t, []string{"música"}, u.Profile.Interests)
	assert.Equal(t, domain.StyleDetailed, u.Profile.CommunicationStyle)
}

func TestGroupsListing(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()

	reply, err := flows.Groups(ctx, repo)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Não há grupos disponíveis")
	assert.Empty(t, reply.Buttons)

	require.NoError(t, repo.CreateUser(ctx, "f", "Fábio", domain.RoleFacilitator))
	require.NoError(t, repo.CreateUser(ctx, "a", "Ana", domain.RoleParticipant))
	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g1", Name: "Cheio", Theme: "t", CreatedBy: "f", MaxMembers: 2}))
	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g2", Name: "Livre", Theme: "música", CreatedBy: "f", MaxMembers: 10}))
	require.NoError(t, repo.AddMember(ctx, "a", "g1"))

	reply, err = flows.Groups(ctx, repo)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "📝 Tema: música")
	assert.Contains(t, reply.Text, "👥 Membros: 2/2")
	assert.Contains(t, reply.Text, "👨‍⚕️ AT: Fábio")
	assert.Contains(t, reply.Text, "✅ Ativo")
	assert.Equal(t, []domain.Button{{Label: "Entrar: Livre", Token: flows.JoinTokenPrefix + "g2"}}, reply.Buttons)
}

func TestActivitiesListing(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)
	repo := memory.NewRepository(memory.WithClock(func() time.Time { return at }))

	reply, err := flows.Activities(ctx, repo, "f")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Não há atividades programadas")

	require.NoError(t, repo.CreateUser(ctx, "f", "Fábio", domain.RoleFacilitator))
	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g1", Name: "Gamers", CreatedBy: "f", MaxMembers: 5}))
	_, err = repo.CreateActivity(ctx, domain.NewActivity{
		GroupID: "g1", Type: domain.ActivityDiscussion, Title: "Roda", Description: "Conversa", CreatedBy: "f",
	})
	require.NoError(t, err)

	reply, err = flows.Activities(ctx, repo, "f")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "*Roda*")
	assert.Contains(t, reply.Text, "📝 Tipo: Discussão temática")
	assert.Contains(t, reply.Text, "👥 Grupo: Gamers")
	assert.Contains(t, reply.Text, "🕒 Quando: 04/03/2025 às 15:30")
	assert.Contains(t, reply.Text, "⏱️ Duração: 60 minutos")
}

func TestJoin(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, "f", "Fábio", domain.RoleFacilitator))
	require.NoError(t, repo.CreateUser(ctx, "a", "Ana", domain.RoleParticipant))
	require.NoError(t, repo.CreateUser(ctx, "b", "Bia", domain.RoleParticipant))
	require.NoError(t, repo.CreateGroup(ctx, domain.NewGroup{ID: "g", Name: "G", CreatedBy: "f", MaxMembers: 2}))

	reply, err := flows.Join(ctx, repo, "a", "g")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Você entrou no grupo 'G'")

	_, err = flows.Join(ctx, repo, "b", "g")
	var aerr *domain.AuthorizationError
	require.ErrorAs(t, err, &aerr)
	assert.ErrorIs(t, err, domain.ErrGroupFull)

	g, err := repo.GetGroup(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"f", "a"}, g.Members)

	_, err = flows.Join(ctx, repo, "a", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = flows.Join(ctx, repo, "ghost", "g")
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, flows.MsgRegisterFirst, aerr.Reason)
}

func TestHelp_DependsOnRole(t *testing.T) {
	p := flows.Help(domain.User{Role: domain.RoleParticipant})
	f := flows.Help(domain.User{Role: domain.RoleFacilitator})
	assert.Contains(t, p, "/perfil")
	assert.NotContains(t, p, "/criar_grupo")
	assert.Contains(t, f, "/criar_grupo")
	assert.NotContains(t, f, "/perfil")
}
