/*
Package dialog provides the building blocks of declarative multi-step dialogs.

A Dialog is an ordered table of Steps. Each Step declares what kind of input it
expects, how to prompt for it, how to validate it, and where to go next. The table
is checked by Builder.Build, so a Dialog that references an unknown step cannot be
constructed. A single generic interpreter drives every Dialog.

Example usage:

	b := dialog.New(domain.DialogRegistration)

	b.Text("name").
		Prompt(dialog.Static("Qual é o seu nome?")).
		Validate(dialog.NonEmpty("O nome não pode ficar vazio."))

	b.Choice("role").
		Prompt(dialog.Static("Como você vai participar?")).
		Options(
			domain.Button{Label: "Participante", Token: "participant"},
			domain.Button{Label: "Auxiliar Terapêutico (AT)", Token: "facilitator"},
		)

	b.Commit(func(ctx context.Context, env dialog.Env) (dialog.Outcome, error) {
		// persist env.Answers
	})

	registration, err := b.Build()
*/
package dialog
