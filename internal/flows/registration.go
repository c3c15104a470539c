package flows

import (
	"context"
	"fmt"

	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
)

type registrationDraft struct {
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
}

// Registration asks for a name and a role, then creates the user.
// Participants continue straight into the Profile dialog.
func Registration() *dialog.Dialog {
	b := dialog.New(domain.DialogRegistration)

	b.Text("name").
		Prompt(dialog.Static(
			"Olá! Bem-vindo ao AutiConnect, um espaço seguro para interação entre pessoas autistas " +
				"com mediação de IA disponível 24/7.\n\n" +
				"Para começar, por favor me diga seu nome:")).
		Validate(dialog.NonEmpty("Por favor, digite seu nome."))

	b.Choice("role").
		Prompt(func(a map[string]any) string {
			return fmt.Sprintf("Obrigado, %v! Qual é o seu papel?", a["name"])
		}).
		Options(
			domain.Button{Label: "Pessoa Autista", Token: string(domain.RoleParticipant)},
			domain.Button{Label: domain.RoleFacilitator.Label(), Token: string(domain.RoleFacilitator)},
		)

	b.Commit(func(ctx context.Context, env dialog.Env) (dialog.Outcome, error) {
		var d registrationDraft
		if err := decode(env.Answers, &d); err != nil {
			return dialog.Outcome{}, err
		}
		role := domain.Role(d.Role)
		if err := env.Repo.CreateUser(ctx, env.UserID, d.Name, role); err != nil {
			return dialog.Outcome{}, err
		}

		if role == domain.RoleParticipant {
			return dialog.Outcome{
				Reply: domain.Reply{Text: "Registro básico concluído! Agora vamos criar seu perfil completo."},
				Chain: domain.DialogProfile,
			}, nil
		}
		return dialog.Outcome{Reply: domain.Reply{Text: "Registro concluído como " + domain.RoleFacilitator.Label() + "!\n\n" +
			"Você pode:\n" +
			"• Criar grupos temáticos com /criar_grupo\n" +
			"• Iniciar atividades estruturadas com /iniciar_atividade\n" +
			"• Ver grupos existentes com /grupos\n" +
			"• Ver atividades programadas com /atividades"}}, nil
	})

	return b.MustBuild()
}
