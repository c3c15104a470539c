package ports

import (
	"context"

	"github.com/aretw0/auticonnect/pkg/domain"
)

// SessionStore persists in-progress dialog sessions keyed by user id.
type SessionStore interface {
	// Save persists the session, replacing any previous one for the same user.
	Save(ctx context.Context, userID string, session *domain.Session) error

	// Load retrieves the session for a user.
	// Returns domain.ErrSessionNotFound if there is none.
	Load(ctx context.Context, userID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID string) error

	// List returns the ids of users with a stored session.
	List(ctx context.Context) ([]string, error)
}
