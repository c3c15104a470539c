package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/auticonnect/pkg/domain"
)

// Builder manages the construction of a Dialog.
type Builder struct {
	kind   domain.DialogKind
	steps  []*StepBuilder
	guard  GuardFunc
	commit CommitFunc
}

// New creates a builder for the given dialog kind.
func New(kind domain.DialogKind) *Builder {
	return &Builder{kind: kind}
}

// Text appends a step that expects free text.
func (b *Builder) Text(name string) *StepBuilder {
	return b.add(name, InputText)
}

// Choice appends a step that expects one of its offered buttons.
func (b *Builder) Choice(name string) *StepBuilder {
	sb := b.add(name, InputChoice)
	sb.step.Validate = OneOf()
	return sb
}

func (b *Builder) add(name string, kind InputKind) *StepBuilder {
	sb := &StepBuilder{step: Step{Name: name, Expect: kind}}
	b.steps = append(b.steps, sb)
	return sb
}

// Guard sets the precondition checked before the dialog starts.
func (b *Builder) Guard(fn GuardFunc) *Builder {
	b.guard = fn
	return b
}

// Commit sets the function that persists the completed dialog.
func (b *Builder) Commit(fn CommitFunc) *Builder {
	b.commit = fn
	return b
}

// Build validates the step table and returns the Dialog.
func (b *Builder) Build() (*Dialog, error) {
	if len(b.steps) == 0 {
		return nil, fmt.Errorf("dialog %s: no steps", b.kind)
	}
	if b.commit == nil {
		return nil, fmt.Errorf("dialog %s: no commit", b.kind)
	}

	d := &Dialog{
		Kind:   b.kind,
		Guard:  b.guard,
		Commit: b.commit,
		index:  make(map[string]int, len(b.steps)),
	}
	for i, sb := range b.steps {
		s := sb.step
		if s.Name == "" {
			return nil, fmt.Errorf("dialog %s: step %d has no name", b.kind, i)
		}
		if _, dup := d.index[s.Name]; dup {
			return nil, fmt.Errorf("dialog %s: duplicate step %q", b.kind, s.Name)
		}
		if s.Prompt == nil {
			return nil, fmt.Errorf("dialog %s: step %q has no prompt", b.kind, s.Name)
		}
		if s.Validate == nil {
			return nil, fmt.Errorf("dialog %s: step %q has no validator", b.kind, s.Name)
		}
		if s.Expect == InputChoice && s.Choices == nil {
			return nil, fmt.Errorf("dialog %s: choice step %q offers no choices", b.kind, s.Name)
		}
		d.index[s.Name] = i
		d.Steps = append(d.Steps, s)
	}

	var errs []error
	for _, s := range d.Steps {
		targets := []string{s.Then}
		for _, br := range s.Branches {
			targets = append(targets, br.To)
		}
		for _, to := range targets {
			if to == "" {
				continue
			}
			if _, ok := d.index[to]; !ok {
				errs = append(errs, fmt.Errorf("dialog %s: step %q transitions to unknown step %q", b.kind, s.Name, to))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return d, nil
}

// MustBuild is Build for statically known tables; it panics on error.
func (b *Builder) MustBuild() *Dialog {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step Step
}

// Prompt sets how the question is rendered.
func (s *StepBuilder) Prompt(fn PromptFunc) *StepBuilder {
	s.step.Prompt = fn
	return s
}

// Validate sets the parser of the raw input.
func (s *StepBuilder) Validate(fn ValidateFunc) *StepBuilder {
	s.step.Validate = fn
	return s
}

// Options offers a fixed set of buttons.
func (s *StepBuilder) Options(buttons ...domain.Button) *StepBuilder {
	static := append([]domain.Button(nil), buttons...)
	s.step.Choices = func(_ context.Context, _ Env) ([]domain.Button, error) {
		return static, nil
	}
	return s
}

// OptionsFrom computes the buttons when the step is prompted.
func (s *StepBuilder) OptionsFrom(fn ChoicesFunc) *StepBuilder {
	s.step.Choices = fn
	return s
}

// Branch adds a conditional transition to the target step.
func (s *StepBuilder) Branch(when func(value any, answers map[string]any) bool, target string) *StepBuilder {
	s.step.Branches = append(s.step.Branches, Branch{When: when, To: target})
	return s
}

// Go adds an unconditional transition to the target step.
func (s *StepBuilder) Go(target string) *StepBuilder {
	s.step.Then = target
	return s
}

// Terminal completes the dialog after this step.
func (s *StepBuilder) Terminal() *StepBuilder {
	s.step.End = true
	return s
}
