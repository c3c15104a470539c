package flows

import (
	"context"
	"fmt"

	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
)

type activityDraft struct {
	Group       string `mapstructure:"group"`
	Type        string `mapstructure:"type"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Duration    int    `mapstructure:"duration"`
}

// ActivityCreation lets a Facilitator schedule an activity in one of their groups.
func ActivityCreation() *dialog.Dialog {
	b := dialog.New(domain.DialogActivityCreation)

	b.Guard(func(ctx context.Context, env dialog.Env) error {
		if _, err := requireRole(ctx, env, domain.RoleFacilitator, "create_activity",
			"Desculpe, apenas Auxiliares Terapêuticos (ATs) podem iniciar atividades."); err != nil {
			return err
		}
		owned, err := ownedGroups(ctx, env.Repo, env.UserID)
		if err != nil {
			return err
		}
		if len(owned) == 0 {
			return &domain.AuthorizationError{
				Action: "create_activity",
				Reason: "Você não tem nenhum grupo como AT. Crie um grupo primeiro com /criar_grupo.",
			}
		}
		return nil
	})

	b.Choice("group").
		Prompt(dialog.Static("Vamos iniciar uma nova atividade estruturada.\n\n" +
			"Primeiro, selecione o grupo para esta atividade:")).
		OptionsFrom(func(ctx context.Context, env dialog.Env) ([]domain.Button, error) {
			owned, err := ownedGroups(ctx, env.Repo, env.UserID)
			if err != nil {
				return nil, err
			}
			buttons := make([]domain.Button, 0, len(owned))
			for _, g := range owned {
				buttons = append(buttons, domain.Button{Label: g.Name, Token: g.ID})
			}
			return buttons, nil
		})

	types := make([]domain.Button, 0, len(domain.ActivityTypes))
	for _, t := range domain.ActivityTypes {
		types = append(types, domain.Button{Label: t.Label(), Token: string(t)})
	}
	b.Choice("type").
		Prompt(dialog.Static("Qual tipo de atividade você deseja iniciar?")).
		Options(types...)

	b.Text("title").
		Prompt(func(a map[string]any) string {
			t, _ := a["type"].(string)
			return fmt.Sprintf("Tipo de atividade: %s\n\nQual será o título desta atividade?",
				domain.ActivityType(t).Label())
		}).
		Validate(dialog.NonEmpty("Por favor, digite um título para a atividade."))

	b.Text("description").
		Prompt(func(a map[string]any) string {
			return fmt.Sprintf("Título: %v\n\nPor favor, forneça uma breve descrição desta atividade:", a["title"])
		}).
		Validate(dialog.NonEmpty("Por favor, escreva uma breve descrição."))

	b.Text("duration").
		Prompt(dialog.Static("Descrição registrada. Qual será a duração desta atividade em minutos? (ex: 30, 60)")).
		Validate(dialog.IntRange(domain.MinActivityDuration, domain.MaxActivityDuration,
			fmt.Sprintf("Por favor, escolha uma duração entre %d e %d minutos.",
				domain.MinActivityDuration, domain.MaxActivityDuration)))

	b.Commit(func(ctx context.Context, env dialog.Env) (dialog.Outcome, error) {
		var d activityDraft
		if err := decode(env.Answers, &d); err != nil {
			return dialog.Outcome{}, err
		}
		if _, err := env.Repo.CreateActivity(ctx, domain.NewActivity{
			GroupID:         d.Group,
			Type:            domain.ActivityType(d.Type),
			Title:           d.Title,
			Description:     d.Description,
			CreatedBy:       env.UserID,
			DurationMinutes: d.Duration,
		}); err != nil {
			return dialog.Outcome{}, err
		}

		groupName := "Grupo"
		if g, err := env.Repo.GetGroup(ctx, d.Group); err == nil {
			groupName = g.Name
		}
		return dialog.Outcome{Reply: domain.Reply{Text: fmt.Sprintf(
			"✅ Atividade '%s' criada com sucesso para o grupo '%s'!\n\n"+
				"Use /atividades para ver todas as atividades programadas.", d.Title, groupName)}}, nil
	})

	return b.MustBuild()
}

func ownedGroups(ctx context.Context, repo ports.Repository, userID string) ([]domain.Group, error) {
	all, err := repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	var owned []domain.Group
	for _, g := range all {
		if g.CreatedBy == userID {
			owned = append(owned, g)
		}
	}
	return owned, nil
}
