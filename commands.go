package auticonnect

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/auticonnect/internal/flows"
	"github.com/aretw0/auticonnect/pkg/domain"
)

// Canonical command names.
const (
	CmdStart          = "start"
	CmdHelp           = "help"
	CmdGroups         = "groups"
	CmdJoin           = "join"
	CmdCreateGroup    = "create_group"
	CmdActivities     = "activities"
	CmdCreateActivity = "create_activity"
	CmdProfile        = "profile"
	CmdCancel         = "cancel"
)

// commandAliases maps every accepted spelling to its canonical name.
var commandAliases = map[string]string{
	CmdStart:            CmdStart,
	CmdHelp:             CmdHelp,
	"ajuda":             CmdHelp,
	CmdGroups:           CmdGroups,
	"grupos":            CmdGroups,
	CmdJoin:             CmdJoin,
	"entrar":            CmdJoin,
	CmdCreateGroup:      CmdCreateGroup,
	"criar_grupo":       CmdCreateGroup,
	CmdActivities:       CmdActivities,
	"atividades":        CmdActivities,
	CmdCreateActivity:   CmdCreateActivity,
	"iniciar_atividade": CmdCreateActivity,
	CmdProfile:          CmdProfile,
	"perfil":            CmdProfile,
	CmdCancel:           CmdCancel,
	"cancelar":          CmdCancel,
}

// CanonicalCommand normalizes a command name ("/Grupos@bot" -> "groups").
// ok is false for unknown commands.
func CanonicalCommand(name string) (canonical string, ok bool) {
	n := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	n, _, _ = strings.Cut(n, "@")
	canonical, ok = commandAliases[n]
	return canonical, ok
}

func (e *Engine) command(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	name, ok := CanonicalCommand(ev.Value)
	if !ok {
		return domain.Reply{Text: flows.MsgUnknownCommand}, nil
	}

	switch name {
	case CmdStart:
		return e.start(ctx, ev.UserID)
	case CmdHelp:
		u, err := e.repo.GetUser(ctx, ev.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Reply{Text: flows.MsgRegisterFirst}, nil
		}
		if err != nil {
			return domain.Reply{}, err
		}
		return domain.Reply{Text: flows.Help(u)}, nil
	case CmdGroups:
		return flows.Groups(ctx, e.repo)
	case CmdJoin:
		if len(ev.Args) == 0 || strings.TrimSpace(ev.Args[0]) == "" {
			return domain.Reply{Text: flows.MsgJoinUsage}, nil
		}
		return e.join(ctx, ev.UserID, ev.Args[0])
	case CmdActivities:
		return flows.Activities(ctx, e.repo, ev.UserID)
	case CmdCreateGroup:
		return e.begin(ctx, domain.DialogGroupCreation, ev.UserID)
	case CmdCreateActivity:
		return e.begin(ctx, domain.DialogActivityCreation, ev.UserID)
	case CmdProfile:
		return e.begin(ctx, domain.DialogProfile, ev.UserID)
	case CmdCancel:
		active, err := e.drop(ctx, ev.UserID, "cancelled")
		if err != nil {
			return domain.Reply{}, err
		}
		if !active {
			return domain.Reply{Text: flows.MsgNothingToCancel}, nil
		}
		return domain.Reply{Text: flows.MsgCancelled}, nil
	}
	return domain.Reply{Text: flows.MsgUnknownCommand}, nil
}

// start always drops the current session, then greets registered users or
// opens the registration dialog.
func (e *Engine) start(ctx context.Context, userID string) (domain.Reply, error) {
	if _, err := e.drop(ctx, userID, "restarted"); err != nil {
		return domain.Reply{}, err
	}
	u, err := e.repo.GetUser(ctx, userID)
	switch {
	case err == nil:
		return domain.Reply{Text: flows.WelcomeBack(u)}, nil
	case errors.Is(err, domain.ErrNotFound):
		return e.begin(ctx, domain.DialogRegistration, userID)
	}
	return domain.Reply{}, err
}
