package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/google/uuid"
)

type groupDraft struct {
	Name        string `mapstructure:"name"`
	Theme       string `mapstructure:"theme"`
	Description string `mapstructure:"description"`
	MaxMembers  int    `mapstructure:"max_members"`
}

// GroupCreation lets a Facilitator open a new thematic group.
func GroupCreation() *dialog.Dialog {
	b := dialog.New(domain.DialogGroupCreation)

	b.Guard(func(ctx context.Context, env dialog.Env) error {
		_, err := requireRole(ctx, env, domain.RoleFacilitator, "create_group",
			"Desculpe, apenas Auxiliares Terapêuticos (ATs) podem criar grupos.")
		return err
	})

	b.Text("name").
		Prompt(dialog.Static("Vamos criar um novo grupo temático.\n\nQual será o nome do grupo?")).
		Validate(dialog.NonEmpty("Por favor, digite um nome para o grupo."))

	b.Text("theme").
		Prompt(func(a map[string]any) string {
			return fmt.Sprintf("Ótimo! O nome do grupo será: %v\n\n"+
				"Agora, qual será o tema principal deste grupo? (ex: videogames, música, ciência)", a["name"])
		}).
		Validate(dialog.NonEmpty("Por favor, informe o tema do grupo."))

	b.Text("description").
		Prompt(func(a map[string]any) string {
			return fmt.Sprintf("Tema definido: %v\n\n"+
				"Por favor, forneça uma breve descrição do propósito deste grupo:", a["theme"])
		}).
		Validate(dialog.NonEmpty("Por favor, escreva uma breve descrição."))

	b.Text("max_members").
		Prompt(dialog.Static("Descrição registrada. Qual será o número máximo de participantes? (recomendado: 8-12)")).
		Validate(dialog.IntRange(domain.MinGroupMembers, domain.MaxGroupMembers,
			fmt.Sprintf("Por favor, escolha um número entre %d e %d.",
				domain.MinGroupMembers, domain.MaxGroupMembers)))

	b.Commit(func(ctx context.Context, env dialog.Env) (dialog.Outcome, error) {
		var d groupDraft
		if err := decode(env.Answers, &d); err != nil {
			return dialog.Outcome{}, err
		}
		err := env.Repo.CreateGroup(ctx, domain.NewGroup{
			ID:          uuid.NewString(),
			Name:        d.Name,
			Theme:       d.Theme,
			Description: d.Description,
			CreatedBy:   env.UserID,
			MaxMembers:  d.MaxMembers,
		})
		if err != nil {
			return dialog.Outcome{}, err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "✅ Grupo '%s' criado com sucesso!\n\n", d.Name)
		sb.WriteString("Os participantes podem entrar pelo comando /grupos.\n\n")
		sb.WriteString("Use /iniciar_atividade para começar uma atividade neste grupo.")
		return dialog.Outcome{Reply: domain.Reply{Text: sb.String()}}, nil
	})

	return b.MustBuild()
}
