package auticonnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/auticonnect/internal/flows"
	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/internal/runtime"
	"github.com/aretw0/auticonnect/internal/sanitize"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/mediation"
	"github.com/aretw0/auticonnect/pkg/ports"
	"github.com/aretw0/auticonnect/pkg/session"
)

// Engine is the high-level entry point of the conversational core.
// Transports hand it one domain.Event at a time and render the returned reply.
type Engine struct {
	runtime  *runtime.Engine
	repo     ports.Repository
	sessions *session.Manager
	mediator ports.Mediator

	sessionOpts []session.Option
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
	maxInput    int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMediator sets the gateway answering free text outside dialogs.
// The default is mediation.NewCanned().
func WithMediator(m ports.Mediator) Option {
	return func(e *Engine) {
		e.mediator = m
	}
}

// WithClock overrides the time source of the engine and its session manager.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMaxInputSize caps the byte size of each inbound value.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.maxInput = n
	}
}

// WithSessionOptions configures the session manager (TTL, distributed locker).
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// New wires an Engine over a domain store and a session store.
func New(repo ports.Repository, store ports.SessionStore, opts ...Option) (*Engine, error) {
	if repo == nil || store == nil {
		return nil, errors.New("repository and session store are required")
	}
	eng := &Engine{
		repo:     repo,
		now:      time.Now,
		maxInput: sanitize.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.mediator == nil {
		eng.mediator = mediation.NewCanned()
	}

	dialogs, err := flows.Dialogs()
	if err != nil {
		return nil, fmt.Errorf("failed to register dialogs: %w", err)
	}
	eng.runtime = runtime.NewEngine(dialogs, repo)

	sessionOpts := append([]session.Option{
		session.WithLogger(eng.logger),
		session.WithClock(eng.now),
	}, eng.sessionOpts...)
	sessionOpts = append(sessionOpts, session.WithExpireHook(eng.expired))
	eng.sessions = session.NewManager(store, sessionOpts...)

	return eng, nil
}

// Sessions exposes the session manager for sweeping and administration.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Groups lists every group.
func (e *Engine) Groups(ctx context.Context) ([]domain.Group, error) {
	return e.repo.ListGroups(ctx)
}

// Handle processes one inbound event and always returns a presentable reply.
// The error classifies the outcome: *domain.ValidationError, *domain.AuthorizationError,
// *domain.CommitError, domain.ErrNotFound, or domain.ErrInternal for faults.
func (e *Engine) Handle(ctx context.Context, ev domain.Event) (reply domain.Reply, err error) {
	start := e.now()
	defer func() {
		e.emitHandled(ctx, ev, e.now().Sub(start), outcome(err))
	}()

	if strings.TrimSpace(ev.UserID) == "" {
		return domain.Reply{Text: flows.MsgInternal}, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	if ev, err = e.clean(ev); err != nil {
		return domain.Reply{Text: msgBadInput}, err
	}

	if err := e.repo.TouchUser(ctx, ev.UserID); err != nil {
		e.logger.Warn("Failed to touch user", "user_id", ev.UserID, "err", err)
	}

	lockErr := e.sessions.WithLock(ctx, ev.UserID, func(ctx context.Context) error {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("Panic while handling event",
					"user_id", ev.UserID, "kind", ev.Kind, "panic", r, "stack", string(debug.Stack()))
				reply = domain.Reply{Text: flows.MsgInternal}
				err = fmt.Errorf("%w: panic: %v", domain.ErrInternal, r)
			}
		}()
		reply, err = e.route(ctx, ev)
		return nil
	})
	if lockErr != nil {
		e.logger.Error("Failed to acquire session lock", "user_id", ev.UserID, "err", lockErr)
		return domain.Reply{Text: flows.MsgInternal}, fmt.Errorf("%w: %w", domain.ErrInternal, lockErr)
	}

	if err != nil && outcome(err) == outcomeInternal && !errors.Is(err, domain.ErrInternal) {
		e.logger.Error("Failed to handle event", "user_id", ev.UserID, "kind", ev.Kind, "err", err)
		return domain.Reply{Text: flows.MsgInternal}, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	return reply, err
}

const msgBadInput = "Sua mensagem é muito longa ou contém caracteres inválidos."

func (e *Engine) clean(ev domain.Event) (domain.Event, error) {
	v, err := sanitize.Input(ev.Value, e.maxInput)
	if err != nil {
		return ev, &domain.ValidationError{Reason: msgBadInput, Err: err}
	}
	args, err := sanitize.All(ev.Args, e.maxInput)
	if err != nil {
		return ev, &domain.ValidationError{Reason: msgBadInput, Err: err}
	}
	ev.Value, ev.Args = v, args
	if ev.Scope == "" {
		ev.Scope = domain.ScopeDirect
	}
	return ev, nil
}

// route dispatches an event. It runs under the user's lock.
func (e *Engine) route(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	switch ev.Kind {
	case domain.EventCommand:
		return e.command(ctx, ev)
	case domain.EventChoice:
		if id, ok := strings.CutPrefix(ev.Value, flows.JoinTokenPrefix); ok {
			return e.join(ctx, ev.UserID, id)
		}
	case domain.EventText:
	default:
		return domain.Reply{Text: flows.MsgUnknownCommand},
			fmt.Errorf("%w: unknown event kind %q", domain.ErrInvalidArgument, ev.Kind)
	}

	s, err := e.sessions.Load(ctx, ev.UserID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		if ev.Kind == domain.EventText {
			return e.mediate(ctx, ev)
		}
		return domain.Reply{Text: "Esta opção não está mais disponível. Use /ajuda para ver os comandos disponíveis."}, nil
	}
	if err != nil {
		return domain.Reply{}, err
	}
	return e.advance(ctx, s, ev)
}

// advance feeds the event to the active dialog.
func (e *Engine) advance(ctx context.Context, s *domain.Session, ev domain.Event) (domain.Reply, error) {
	res, err := e.runtime.Submit(ctx, s, ev.Kind, ev.Value)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		e.emitDialog(ctx, e.hooks.OnStepRejected, s, verr.Step, verr.Reason, verr)
		prompt, perr := e.runtime.Prompt(ctx, s)
		if perr != nil {
			return domain.Reply{}, perr
		}
		return domain.Reply{Text: verr.Reason + "\n\n" + prompt.Text, Buttons: prompt.Buttons}, verr
	}
	if err != nil {
		return domain.Reply{}, err
	}
	e.emitDialog(ctx, e.hooks.OnStepAccepted, res.Session, res.Step, "", nil)

	if !res.Done {
		if err := e.sessions.Save(ctx, res.Session); err != nil {
			return domain.Reply{}, err
		}
		return e.runtime.Prompt(ctx, res.Session)
	}
	return e.complete(ctx, res.Session)
}

// complete commits a finished dialog and clears the session whatever the outcome.
func (e *Engine) complete(ctx context.Context, s *domain.Session) (domain.Reply, error) {
	out, err := e.runtime.Commit(ctx, s)
	if derr := e.sessions.Delete(ctx, s.UserID); derr != nil {
		e.logger.Warn("Failed to clear completed session", "user_id", s.UserID, "dialog", s.Dialog, "err", derr)
	}
	if err != nil {
		e.emitDialog(ctx, e.hooks.OnCommitFailed, s, "", "", err)
		return domain.Reply{Text: flows.CommitFailed(s.Dialog)}, err
	}
	e.emitDialog(ctx, e.hooks.OnDialogComplete, s, "", "", nil)

	if out.Chain == "" {
		return out.Reply, nil
	}
	next, err := e.begin(ctx, out.Chain, s.UserID)
	if err != nil {
		return next, err
	}
	return domain.Reply{Text: joinText(out.Reply.Text, next.Text), Buttons: next.Buttons}, nil
}

// begin authorizes and starts a dialog, replacing any active one.
func (e *Engine) begin(ctx context.Context, kind domain.DialogKind, userID string) (domain.Reply, error) {
	if err := e.runtime.Authorize(ctx, kind, userID); err != nil {
		var aerr *domain.AuthorizationError
		if errors.As(err, &aerr) {
			return domain.Reply{Text: aerr.Reason}, aerr
		}
		return domain.Reply{}, err
	}
	if _, err := e.drop(ctx, userID, "replaced"); err != nil {
		return domain.Reply{}, err
	}

	s, err := e.runtime.Start(kind, userID, e.now())
	if err != nil {
		return domain.Reply{}, err
	}
	if err := e.sessions.Save(ctx, s); err != nil {
		return domain.Reply{}, err
	}
	e.emitDialog(ctx, e.hooks.OnDialogStart, s, e.runtime.CurrentStep(s), "", nil)
	return e.runtime.Prompt(ctx, s)
}

// drop clears the user's session, if any. It reports whether one was active.
func (e *Engine) drop(ctx context.Context, userID, reason string) (bool, error) {
	s, err := e.sessions.Load(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := e.sessions.Delete(ctx, userID); err != nil {
		return false, err
	}
	e.emitDialog(ctx, e.hooks.OnDialogAbort, s, e.runtime.CurrentStep(s), reason, nil)
	return true, nil
}

func (e *Engine) join(ctx context.Context, userID, groupID string) (domain.Reply, error) {
	reply, err := flows.Join(ctx, e.repo, userID, strings.TrimSpace(groupID))
	var aerr *domain.AuthorizationError
	if errors.As(err, &aerr) {
		return domain.Reply{Text: aerr.Reason}, aerr
	}
	return reply, err
}

// mediate answers free text received outside any dialog.
func (e *Engine) mediate(ctx context.Context, ev domain.Event) (domain.Reply, error) {
	u, err := e.repo.GetUser(ctx, ev.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Reply{Text: flows.MsgUnregisteredHi}, nil
	}
	if err != nil {
		return domain.Reply{}, err
	}

	// Group chats carry the group id. Crisis messages are mediated even when the group opted out.
	if ev.Scope == domain.ScopeGroup && ev.ChatID != "" && !mediation.Detect(ev.Value) {
		g, err := e.repo.GetGroup(ctx, ev.ChatID)
		switch {
		case err == nil && !g.MediationEnabled:
			return domain.Reply{}, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return domain.Reply{}, err
		}
	}

	req := domain.MediationRequest{
		UserID: ev.UserID,
		Text:   ev.Value,
		Role:   u.Role,
		Scope:  ev.Scope,
		ChatID: ev.ChatID,
	}
	m, err := e.mediator.Mediate(ctx, req)
	if e.hooks.OnMediation != nil {
		e.hooks.OnMediation(ctx, &domain.MediationEvent{
			Timestamp: e.now(),
			UserID:    ev.UserID,
			Scope:     ev.Scope,
			Escalate:  err == nil && m.Escalate,
			Err:       err,
		})
	}
	if err != nil {
		e.logger.Warn("Mediation failed, using fallback", "user_id", ev.UserID, "scope", ev.Scope, "err", err)
		return domain.Reply{Text: flows.MsgMediatorDown}, nil
	}
	if m.Reply == "" {
		return domain.Reply{Escalate: m.Escalate}, nil
	}
	return domain.Reply{Text: "🤖 *Assistente IA*: " + m.Reply, Escalate: m.Escalate}, nil
}

// expired is wired into the session manager.
func (e *Engine) expired(ctx context.Context, s *domain.Session) {
	e.emitDialog(ctx, e.hooks.OnDialogAbort, s, e.runtime.CurrentStep(s), "expired", nil)
}

func joinText(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
