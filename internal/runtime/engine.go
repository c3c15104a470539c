package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
)

// Engine is the dialog interpreter.
type Engine struct {
	dialogs dialog.Set
	repo    ports.Repository
}

// NewEngine creates a new interpreter over the given dialogs.
func NewEngine(dialogs dialog.Set, repo ports.Repository) *Engine {
	return &Engine{
		dialogs: dialogs,
		repo:    repo,
	}
}

// Result is the outcome of an accepted input.
type Result struct {
	// Session is the advanced copy. On Done it holds the final answers.
	Session *domain.Session
	// Step is the name of the step that accepted the input.
	Step string
	Done bool
}

func (e *Engine) dialog(kind domain.DialogKind) (*dialog.Dialog, error) {
	d, ok := e.dialogs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown dialog %q", kind)
	}
	return d, nil
}

func (e *Engine) env(s *domain.Session) dialog.Env {
	return dialog.Env{UserID: s.UserID, Answers: s.Answers, Repo: e.repo}
}

// Authorize runs the dialog guard for userID.
func (e *Engine) Authorize(ctx context.Context, kind domain.DialogKind, userID string) error {
	d, err := e.dialog(kind)
	if err != nil {
		return err
	}
	if d.Guard == nil {
		return nil
	}
	return d.Guard(ctx, dialog.Env{UserID: userID, Answers: map[string]any{}, Repo: e.repo})
}

// Start returns a new session positioned at the first step.
func (e *Engine) Start(kind domain.DialogKind, userID string, now time.Time) (*domain.Session, error) {
	if _, err := e.dialog(kind); err != nil {
		return nil, err
	}
	return domain.NewSession(userID, kind, now), nil
}

// CurrentStep returns the name of the step s is waiting on.
func (e *Engine) CurrentStep(s *domain.Session) string {
	d, err := e.dialog(s.Dialog)
	if err != nil {
		return ""
	}
	step, err := d.Step(s.Step)
	if err != nil {
		return ""
	}
	return step.Name
}

// Prompt renders the question of the current step with its buttons.
func (e *Engine) Prompt(ctx context.Context, s *domain.Session) (domain.Reply, error) {
	d, err := e.dialog(s.Dialog)
	if err != nil {
		return domain.Reply{}, err
	}
	step, err := d.Step(s.Step)
	if err != nil {
		return domain.Reply{}, err
	}

	reply := domain.Reply{Text: step.Prompt(s.Answers)}
	if step.Choices != nil {
		buttons, err := step.Choices(ctx, e.env(s))
		if err != nil {
			return domain.Reply{}, fmt.Errorf("choices for %s.%s: %w", s.Dialog, step.Name, err)
		}
		reply.Buttons = buttons
	}
	return reply, nil
}

// Submit applies raw input of the given kind to the current step.
// s is never modified. A rejection is a *domain.ValidationError.
func (e *Engine) Submit(ctx context.Context, s *domain.Session, kind domain.EventKind, raw string) (Result, error) {
	d, err := e.dialog(s.Dialog)
	if err != nil {
		return Result{}, err
	}
	step, err := d.Step(s.Step)
	if err != nil {
		return Result{}, err
	}

	if err := matchKind(step, kind); err != nil {
		return Result{}, err
	}

	in := dialog.Input{Raw: raw}
	if step.Choices != nil {
		if in.Choices, err = step.Choices(ctx, e.env(s)); err != nil {
			return Result{}, fmt.Errorf("choices for %s.%s: %w", s.Dialog, step.Name, err)
		}
	}

	value, err := step.Validate(in)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			if verr.Step == "" {
				verr.Step = step.Name
			}
			return Result{}, verr
		}
		return Result{}, fmt.Errorf("validate %s.%s: %w", s.Dialog, step.Name, err)
	}

	next := s.Clone()
	next.Answers[step.Name] = value
	idx, done := d.Next(s.Step, value, next.Answers)
	next.Step = idx

	return Result{Session: next, Step: step.Name, Done: done}, nil
}

// Commit persists a completed session through its dialog.
// Failures are reported as *domain.CommitError.
func (e *Engine) Commit(ctx context.Context, s *domain.Session) (dialog.Outcome, error) {
	d, err := e.dialog(s.Dialog)
	if err != nil {
		return dialog.Outcome{}, err
	}
	out, err := d.Commit(ctx, e.env(s))
	if err != nil {
		return dialog.Outcome{}, &domain.CommitError{Dialog: s.Dialog, Err: err}
	}
	return out, nil
}

func matchKind(step dialog.Step, kind domain.EventKind) error {
	switch {
	case step.Expect == dialog.InputChoice && kind != domain.EventChoice:
		return &domain.ValidationError{
			Step:   step.Name,
			Reason: "Por favor, escolha uma das opções usando os botões.",
			Err:    domain.ErrInputKindMismatch,
		}
	case step.Expect == dialog.InputText && kind != domain.EventText:
		return &domain.ValidationError{
			Step:   step.Name,
			Reason: "Por favor, responda digitando uma mensagem.",
			Err:    domain.ErrInputKindMismatch,
		}
	}
	return nil
}
