package flows

import (
	"context"
	"strconv"
	"strings"

	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
)

type profileDraft struct {
	Age                int      `mapstructure:"age"`
	Gender             string   `mapstructure:"gender"`
	EmergencyContacts  []string `mapstructure:"emergency_contacts"`
	AcademicHistory    string   `mapstructure:"academic_history"`
	Professionals      []string `mapstructure:"professionals"`
	Interests          []string `mapstructure:"interests"`
	AnxietyTriggers    []string `mapstructure:"anxiety_triggers"`
	CommunicationStyle string   `mapstructure:"communication_style"`
}

func (d profileDraft) profile() domain.Profile {
	return domain.Profile{
		Age:                d.Age,
		Gender:             domain.Gender(d.Gender),
		EmergencyContacts:  d.EmergencyContacts,
		AcademicHistory:    d.AcademicHistory,
		Professionals:      d.Professionals,
		Interests:          d.Interests,
		AnxietyTriggers:    d.AnxietyTriggers,
		CommunicationStyle: domain.CommunicationStyle(d.CommunicationStyle),
	}
}

// Profile collects the eight onboarding answers of a Participant.
func Profile() *dialog.Dialog {
	b := dialog.New(domain.DialogProfile)

	b.Guard(func(ctx context.Context, env dialog.Env) error {
		_, err := requireRole(ctx, env, domain.RoleParticipant, "update_profile",
			"O perfil completo é exclusivo para participantes.")
		return err
	})

	b.Text("age").
		Prompt(dialog.Static("Por favor, digite sua idade:")).
		Validate(validateAge)

	b.Choice("gender").
		Prompt(dialog.Static("Obrigado! Qual é o seu gênero?")).
		Options(
			domain.Button{Label: "Masculino", Token: string(domain.GenderMale)},
			domain.Button{Label: "Feminino", Token: string(domain.GenderFemale)},
			domain.Button{Label: "Não-binário", Token: string(domain.GenderNonBinary)},
			domain.Button{Label: "Prefiro não informar", Token: string(domain.GenderUndisclosed)},
		)

	b.Text("emergency_contacts").
		Prompt(dialog.Static(
			"Obrigado! Agora, por favor, forneça contatos de emergência (pais, responsáveis ou cuidadores).\n\n" +
				"Digite no formato: Nome - Relação - Telefone\n" +
				"Exemplo: Maria Silva - Mãe - (11) 98765-4321\n\n" +
				"Você pode adicionar múltiplos contatos, um por linha.")).
		Validate(dialog.Lines())

	b.Text("academic_history").
		Prompt(dialog.Static(
			"Obrigado! Agora, conte-nos brevemente sobre seu histórico acadêmico.\n" +
				"Por exemplo: escolas que frequentou, nível de escolaridade, etc.")).
		Validate(dialog.NonEmpty("Por favor, conte-nos um pouco sobre seu histórico acadêmico."))

	b.Text("professionals").
		Prompt(dialog.Static(
			"Obrigado! Agora, por favor, liste os profissionais com quem você já trabalhou " +
				"ou trabalha atualmente (terapeutas, psicólogos, etc.).\n\n" +
				"Digite no formato: Nome - Especialidade\n" +
				"Exemplo: Dr. João - Psicólogo\n\n" +
				"Você pode adicionar múltiplos profissionais, um por linha.")).
		Validate(dialog.Lines())

	b.Text("interests").
		Prompt(dialog.Static(
			"Obrigado! Agora, conte-nos sobre seus interesses especiais, hobbies ou tópicos favoritos.\n" +
				"Isso nos ajudará a sugerir grupos e atividades relevantes para você.\n\n" +
				"Por favor, liste seus interesses separados por vírgulas.")).
		Validate(dialog.CSV())

	b.Text("anxiety_triggers").
		Prompt(dialog.Static(
			"Obrigado! Para nos ajudar a criar um ambiente confortável, " +
				"poderia nos informar sobre gatilhos conhecidos de ansiedade ou desconforto?\n\n" +
				"Por exemplo: barulhos altos, interrupções frequentes, certos tópicos, etc.\n" +
				"Por favor, liste-os separados por vírgulas.")).
		Validate(dialog.CSV())

	b.Choice("communication_style").
		Prompt(dialog.Static("Quase terminando! Como você prefere que nos comuniquemos com você?")).
		Options(
			domain.Button{Label: "Direta e objetiva", Token: string(domain.StyleDirect)},
			domain.Button{Label: "Detalhada e explicativa", Token: string(domain.StyleDetailed)},
		)

	b.Commit(func(ctx context.Context, env dialog.Env) (dialog.Outcome, error) {
		var d profileDraft
		if err := decode(env.Answers, &d); err != nil {
			return dialog.Outcome{}, err
		}
		if err := env.Repo.UpdateUserProfile(ctx, env.UserID, domain.FullUpdate(d.profile())); err != nil {
			return dialog.Outcome{}, err
		}
		return dialog.Outcome{Reply: domain.Reply{Text: "Perfil completo criado com sucesso!\n\n" +
			"Agora você pode:\n" +
			"• Ver grupos disponíveis com /grupos\n" +
			"• Ver atividades programadas com /atividades\n\n" +
			"Nossos agentes de IA estão disponíveis 24/7 para ajudar nas interações " +
			"e oferecer suporte quando necessário. Se precisar de ajuda individual, " +
			"você pode iniciar uma conversa privada a qualquer momento."}}, nil
	})

	return b.MustBuild()
}

// Age bounds accepted during onboarding.
const (
	MinAge = 5
	MaxAge = 100
)

func validateAge(in dialog.Input) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(in.Raw))
	if err != nil {
		return nil, domain.Invalid("Por favor, digite apenas números para sua idade.")
	}
	if n < MinAge || n > MaxAge {
		return nil, domain.Invalid("Por favor, digite uma idade válida entre 5 e 100 anos.")
	}
	return n, nil
}
