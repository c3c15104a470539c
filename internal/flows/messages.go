package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
)

// JoinTokenPrefix prefixes the choice tokens of the join buttons.
const JoinTokenPrefix = "join:"

// Fixed replies shared by the engine.
const (
	MsgRegisterFirst   = "Você precisa se registrar primeiro. Use /start para criar seu perfil."
	MsgUnregisteredHi  = "Olá! Parece que você ainda não está registrado. Use /start para criar seu perfil."
	MsgUnknownCommand  = "Comando não reconhecido. Use /ajuda para ver os comandos disponíveis."
	MsgCancelled       = "Operação cancelada."
	MsgNothingToCancel = "Não há nenhuma operação em andamento."
	MsgInternal        = "Desculpe, ocorreu um erro inesperado. Por favor, tente novamente em instantes."
	MsgJoinUsage       = "Use /entrar <id do grupo> ou escolha um grupo em /grupos."
	MsgMediatorDown    = "Desculpe, não consegui processar sua mensagem agora. " +
		"Se precisar de ajuda urgente, procure um profissional de confiança."
)

// ActivityTimeLayout formats scheduled times in listings.
const ActivityTimeLayout = "02/01/2006 às 15:04"

// CommitFailed is the reply for a dialog whose final write failed.
func CommitFailed(kind domain.DialogKind) string {
	cmd := "/start"
	switch kind {
	case domain.DialogProfile:
		cmd = "/perfil"
	case domain.DialogGroupCreation:
		cmd = "/criar_grupo"
	case domain.DialogActivityCreation:
		cmd = "/iniciar_atividade"
	}
	return fmt.Sprintf("Desculpe, ocorreu um erro ao salvar suas respostas. Por favor, tente novamente com %s.", cmd)
}

// WelcomeBack greets a user that is already registered.
func WelcomeBack(u domain.User) string {
	return fmt.Sprintf("Olá novamente, %s! Você já está registrado como %s.\n\n"+
		"Use /grupos para ver grupos disponíveis ou /atividades para ver atividades programadas.",
		u.Name, u.Role.Label())
}

// Help renders the command list for the user's role.
func Help(u domain.User) string {
	var sb strings.Builder
	sb.WriteString("🤖 *AutiConnect - Comandos Disponíveis:*\n\n")
	sb.WriteString("/start - Iniciar ou reiniciar o bot\n")
	sb.WriteString("/ajuda - Mostrar esta mensagem de ajuda\n")
	sb.WriteString("/grupos - Ver grupos temáticos disponíveis\n")
	sb.WriteString("/entrar - Entrar em um grupo\n")
	sb.WriteString("/atividades - Ver atividades programadas\n")
	if u.Role == domain.RoleParticipant {
		sb.WriteString("/perfil - Atualizar seu perfil\n")
	}
	sb.WriteString("/cancelar - Cancelar a operação em andamento\n\n")
	if u.Role == domain.RoleFacilitator {
		sb.WriteString("*Comandos exclusivos para ATs:*\n")
		sb.WriteString("/criar_grupo - Criar um novo grupo temático\n")
		sb.WriteString("/iniciar_atividade - Iniciar uma nova atividade estruturada\n\n")
	}
	sb.WriteString("O AutiConnect oferece mediadores de IA disponíveis 24/7 para facilitar interações " +
		"e oferecer suporte quando necessário. Os mediadores podem ajudar com:\n\n" +
		"• Facilitação de conversas em grupo\n" +
		"• Suporte individual em conversas privadas\n" +
		"• Estruturação de atividades\n" +
		"• Detecção de situações que requerem intervenção profissional\n\n" +
		"Para conversar com um mediador de IA em privado, basta enviar uma mensagem diretamente para este bot.")
	return sb.String()
}

func status(on bool) string {
	if on {
		return "✅ Ativo"
	}
	return "❌ Inativo"
}

// Groups lists every group with join buttons for those with free seats.
func Groups(ctx context.Context, repo ports.Repository) (domain.Reply, error) {
	groups, err := repo.ListGroups(ctx)
	if err != nil {
		return domain.Reply{}, err
	}
	if len(groups) == 0 {
		return domain.Reply{Text: "Não há grupos disponíveis no momento.\n\n" +
			"Se você é um AT, pode criar um novo grupo com /criar_grupo."}, nil
	}

	var sb strings.Builder
	var buttons []domain.Button
	sb.WriteString("📋 *Grupos Disponíveis:*\n\n")
	for _, g := range groups {
		facilitator := "Desconhecido"
		if u, err := repo.GetUser(ctx, g.CreatedBy); err == nil {
			facilitator = u.Name
		}
		fmt.Fprintf(&sb, "*%s*\n", g.Name)
		fmt.Fprintf(&sb, "📝 Tema: %s\n", g.Theme)
		fmt.Fprintf(&sb, "👥 Membros: %d/%d\n", len(g.Members), g.MaxMembers)
		fmt.Fprintf(&sb, "👨‍⚕️ AT: %s\n", facilitator)
		fmt.Fprintf(&sb, "🤖 Mediador IA: %s\n", status(g.MediationEnabled))
		fmt.Fprintf(&sb, "ℹ️ %s\n\n", g.Description)

		if !g.Full() {
			buttons = append(buttons, domain.Button{Label: "Entrar: " + g.Name, Token: JoinTokenPrefix + g.ID})
		}
	}
	return domain.Reply{Text: strings.TrimRight(sb.String(), "\n"), Buttons: buttons}, nil
}

// Activities lists the scheduled activities of the user's groups.
func Activities(ctx context.Context, repo ports.Repository, userID string) (domain.Reply, error) {
	acts, err := repo.ListActivitiesForUser(ctx, userID)
	if err != nil {
		return domain.Reply{}, err
	}
	if len(acts) == 0 {
		return domain.Reply{Text: "Não há atividades programadas para seus grupos no momento.\n\n" +
			"Se você é um AT, pode iniciar uma nova atividade com /iniciar_atividade."}, nil
	}

	var sb strings.Builder
	sb.WriteString("📅 *Atividades Programadas:*\n\n")
	for _, a := range acts {
		groupName := "Desconhecido"
		if g, err := repo.GetGroup(ctx, a.GroupID); err == nil {
			groupName = g.Name
		}
		fmt.Fprintf(&sb, "*%s*\n", a.Title)
		fmt.Fprintf(&sb, "📝 Tipo: %s\n", a.Type.Label())
		fmt.Fprintf(&sb, "👥 Grupo: %s\n", groupName)
		fmt.Fprintf(&sb, "🕒 Quando: %s\n", a.ScheduledAt.Format(ActivityTimeLayout))
		fmt.Fprintf(&sb, "⏱️ Duração: %d minutos\n", a.DurationMinutes)
		fmt.Fprintf(&sb, "🤖 Guia IA: %s\n", status(a.GuidanceEnabled))
		fmt.Fprintf(&sb, "ℹ️ %s\n\n", a.Description)
	}
	return domain.Reply{Text: strings.TrimRight(sb.String(), "\n")}, nil
}

// Join adds the user to a group. Expected failures come back as user-facing
// errors: *domain.AuthorizationError for a full group or an unregistered user.
func Join(ctx context.Context, repo ports.Repository, userID, groupID string) (domain.Reply, error) {
	if _, err := repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Reply{}, &domain.AuthorizationError{Action: "join", Reason: MsgRegisterFirst, Err: err}
		}
		return domain.Reply{}, err
	}

	err := repo.AddMember(ctx, userID, groupID)
	switch {
	case errors.Is(err, domain.ErrGroupFull):
		return domain.Reply{}, &domain.AuthorizationError{
			Action: "join",
			Reason: "Desculpe, este grupo já atingiu o número máximo de participantes.",
			Err:    err,
		}
	case errors.Is(err, domain.ErrNotFound):
		return domain.Reply{Text: "Grupo não encontrado. Use /grupos para ver os grupos disponíveis."}, err
	case err != nil:
		return domain.Reply{}, err
	}

	name := "Grupo"
	if g, err := repo.GetGroup(ctx, groupID); err == nil {
		name = g.Name
	}
	return domain.Reply{Text: fmt.Sprintf("Você entrou no grupo '%s' com sucesso!\n\n"+
		"Use /atividades para ver as atividades programadas.", name)}, nil
}
