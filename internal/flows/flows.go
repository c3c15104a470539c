// Package flows declares the AutiConnect dialogs and the informational replies.
// User-facing text is in Portuguese.
package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/auticonnect/pkg/dialog"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Dialogs returns the four registered dialogs.
func Dialogs() (dialog.Set, error) {
	return dialog.NewSet(
		Registration(),
		Profile(),
		GroupCreation(),
		ActivityCreation(),
	)
}

// decode copies answers into a typed draft. Weak typing absorbs the float64 and
// []any values produced by serializing session stores.
func decode(answers map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(answers); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}
	return nil
}

// requireRole loads the user and checks its role, producing user-facing denials.
func requireRole(ctx context.Context, env dialog.Env, role domain.Role, action, denial string) (domain.User, error) {
	u, err := env.Repo.GetUser(ctx, env.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, &domain.AuthorizationError{Action: action, Reason: MsgRegisterFirst, Err: err}
	}
	if err != nil {
		return domain.User{}, err
	}
	if u.Role != role {
		return domain.User{}, &domain.AuthorizationError{Action: action, Reason: denial}
	}
	return u, nil
}
