package dialog_test

import (
	"context"
	"testing"

	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noCommit(context.Context, dialog.Env) (dialog.Outcome, error) {
	return dialog.Outcome{}, nil
}

func TestBuilder_LinearFlow(t *testing.T) {
	b := dialog.New(domain.DialogGroupCreation)
	b.Text("name").Prompt(dialog.Static("Nome?")).Validate(dialog.NonEmpty("vazio"))
	b.Text("size").Prompt(dialog.Static("Tamanho?")).Validate(dialog.IntRange(2, 50, "2-50"))
	b.Commit(noCommit)

	d, err := b.Build()
	require.NoError(t, err)

	next, done := d.Next(0, "Amigos", nil)
	assert.False(t, done)
	assert.Equal(t, 1, next)

	_, done = d.Next(1, 8, nil)
	assert.True(t, done, "the last step completes the dialog")

	i, ok := d.StepIndex("size")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestBuilder_BranchAndTerminal(t *testing.T) {
	b := dialog.New(domain.DialogRegistration)
	b.Choice("kind").Prompt(dialog.Static("?")).
		Options(domain.Button{Label: "A", Token: "a"}, domain.Button{Label: "B", Token: "b"}).
		Branch(func(v any, _ map[string]any) bool { return v == "b" }, "b_only")
	b.Text("a_only").Prompt(dialog.Static("a")).Validate(dialog.NonEmpty("x")).Terminal()
	b.Text("b_only").Prompt(dialog.Static("b")).Validate(dialog.NonEmpty("x"))
	b.Commit(noCommit)

	d, err := b.Build()
	require.NoError(t, err)

	next, done := d.Next(0, "b", nil)
	assert.False(t, done)
	assert.Equal(t, 2, next)

	next, done = d.Next(0, "a", nil)
	assert.False(t, done)
	assert.Equal(t, 1, next)

	_, done = d.Next(1, "x", nil)
	assert.True(t, done)
}

func TestBuilder_RejectsBadTables(t *testing.T) {
	t.Run("unknown target", func(t *testing.T) {
		b := dialog.New(domain.DialogProfile)
		b.Text("a").Prompt(dialog.Static("a")).Validate(dialog.NonEmpty("x")).Go("missing")
		b.Commit(noCommit)
		_, err := b.Build()
		assert.ErrorContains(t, err, `unknown step "missing"`)
	})

	t.Run("duplicate step", func(t *testing.T) {
		b := dialog.New(domain.DialogProfile)
		b.Text("a").Prompt(dialog.Static("a")).Validate(dialog.NonEmpty("x"))
		b.Text("a").Prompt(dialog.Static("a")).Validate(dialog.NonEmpty("x"))
		b.Commit(noCommit)
		_, err := b.Build()
		assert.Error(t, err)
	})

	t.Run("choice without options", func(t *testing.T) {
		b := dialog.New(domain.DialogProfile)
		b.Choice("c").Prompt(dialog.Static("c"))
		b.Commit(noCommit)
		_, err := b.Build()
		assert.Error(t, err)
	})

	t.Run("no commit", func(t *testing.T) {
		b := dialog.New(domain.DialogProfile)
		b.Text("a").Prompt(dialog.Static("a")).Validate(dialog.NonEmpty("x"))
		_, err := b.Build()
		assert.Error(t, err)
	})
}

func TestNewSet_RejectsDuplicates(t *testing.T) {
	mk := func() *dialog.Dialog {
		b := dialog.New(domain.DialogProfile)
		b.Text("a").Prompt(dialog.Static("a")).Validate(dialog.NonEmpty("x"))
		return b.Commit(noCommit).MustBuild()
	}
	_, err := dialog.NewSet(mk(), mk())
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	age := dialog.IntRange(5, 100, "idade")
	for _, bad := range []string{"abc", "200", "4", ""} {
		_, err := age(dialog.Input{Raw: bad})
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", bad)
	}
	v, err := age(dialog.Input{Raw: " 30 "})
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	lines, err := dialog.Lines()(dialog.Input{Raw: "Maria - Mãe - 123\n\n  João - Pai - 456  \n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Maria - Mãe - 123", "João - Pai - 456"}, lines)

	csv, err := dialog.CSV()(dialog.Input{Raw: "música, jogos,,"})
	require.NoError(t, err)
	assert.Equal(t, []string{"música", "jogos"}, csv)

	// Blank lists are accepted as empty.
	lines, err = dialog.Lines()(dialog.Input{Raw: " \n "})
	require.NoError(t, err)
	assert.Equal(t, []string{}, lines)
	csv, err = dialog.CSV()(dialog.Input{Raw: " , ,  "})
	require.NoError(t, err)
	assert.Equal(t, []string{}, csv)

	choice := dialog.OneOf()
	opts := []domain.Button{{Label: "Direta", Token: "direct"}}
	v, err = choice(dialog.Input{Raw: "direct", Choices: opts})
	require.NoError(t, err)
	assert.Equal(t, "direct", v)
	_, err = choice(dialog.Input{Raw: "loud", Choices: opts})
	assert.Error(t, err)
}
