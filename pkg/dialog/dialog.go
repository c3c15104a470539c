package dialog

import (
	"context"
	"fmt"

	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
)

// InputKind is the kind of event a step accepts.
type InputKind string

const (
	InputText   InputKind = "text"
	InputChoice InputKind = "choice"
)

// Env is what prompts, guards and commits can see.
type Env struct {
	UserID  string
	Answers map[string]any
	Repo    ports.Repository
}

// Input is the raw value submitted to a step, with the choices that were offered.
type Input struct {
	Raw     string
	Choices []domain.Button
}

// PromptFunc renders the question of a step from the answers so far.
type PromptFunc func(answers map[string]any) string

// ChoicesFunc computes the buttons offered by a choice step.
type ChoicesFunc func(ctx context.Context, env Env) ([]domain.Button, error)

// ValidateFunc parses raw input into the answer value.
// It must be pure and return a *domain.ValidationError on rejection.
type ValidateFunc func(in Input) (any, error)

// GuardFunc authorizes entering a dialog. It returns a *domain.AuthorizationError to deny.
type GuardFunc func(ctx context.Context, env Env) error

// CommitFunc persists a completed dialog.
type CommitFunc func(ctx context.Context, env Env) (Outcome, error)

// Outcome is the result of a successful commit.
type Outcome struct {
	Reply domain.Reply
	// Chain, when set, starts another dialog right after the commit.
	Chain domain.DialogKind
}

// Branch is a conditional transition evaluated on the accepted value.
type Branch struct {
	When func(value any, answers map[string]any) bool
	To   string
}

// Step is one question of a dialog.
type Step struct {
	Name     string
	Expect   InputKind
	Prompt   PromptFunc
	Choices  ChoicesFunc
	Validate ValidateFunc

	Branches []Branch
	// Then is the unconditional target; empty means the following step.
	Then string
	// End completes the dialog after this step regardless of position.
	End bool
}

// Dialog is a validated step table.
type Dialog struct {
	Kind   domain.DialogKind
	Steps  []Step
	Guard  GuardFunc
	Commit CommitFunc

	index map[string]int
}

// StepIndex returns the position of the named step.
func (d *Dialog) StepIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Step returns the step at i.
func (d *Dialog) Step(i int) (Step, error) {
	if i < 0 || i >= len(d.Steps) {
		return Step{}, fmt.Errorf("dialog %s: step %d out of range", d.Kind, i)
	}
	return d.Steps[i], nil
}

// Next resolves the transition out of step i once value was accepted.
// done is true when the dialog is complete.
func (d *Dialog) Next(i int, value any, answers map[string]any) (next int, done bool) {
	s := d.Steps[i]
	for _, b := range s.Branches {
		if b.When(value, answers) {
			return d.index[b.To], false
		}
	}
	switch {
	case s.Then != "":
		return d.index[s.Then], false
	case s.End || i == len(d.Steps)-1:
		return i, true
	}
	return i + 1, false
}

// Set indexes dialogs by kind.
type Set map[domain.DialogKind]*Dialog

// NewSet builds a Set, rejecting duplicate kinds.
func NewSet(dialogs ...*Dialog) (Set, error) {
	s := make(Set, len(dialogs))
	for _, d := range dialogs {
		if _, dup := s[d.Kind]; dup {
			return nil, fmt.Errorf("dialog %s registered twice", d.Kind)
		}
		s[d.Kind] = d
	}
	return s, nil
}
