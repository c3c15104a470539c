package ports

import (
	"context"

	"github.com/aretw0/auticonnect/pkg/domain"
)

// Repository is the domain store. Implementations serialize per entity and make
// every multi-entity operation a single unit of work.
type Repository interface {
	// CreateUser registers a new user. Participants start with an empty profile.
	// Returns domain.ErrAlreadyExists or domain.ErrInvalidArgument.
	CreateUser(ctx context.Context, id, name string, role domain.Role) error

	// UpdateUserProfile merges the update into the user's profile.
	// Returns domain.ErrNotFound, or domain.ErrInvalidArgument for Facilitators.
	UpdateUserProfile(ctx context.Context, id string, update domain.ProfileUpdate) error

	// GetUser returns a copy of the user or domain.ErrNotFound.
	GetUser(ctx context.Context, id string) (domain.User, error)

	// CreateGroup stores the group with its creator as first member and appends
	// the group to the creator's Groups.
	CreateGroup(ctx context.Context, group domain.NewGroup) error

	// GetGroup returns a copy of the group or domain.ErrNotFound.
	GetGroup(ctx context.Context, id string) (domain.Group, error)

	// ListGroups returns every group in creation order.
	ListGroups(ctx context.Context) ([]domain.Group, error)

	// AddMember joins a user to a group. Joining twice is a no-op.
	// Returns domain.ErrNotFound or domain.ErrGroupFull.
	AddMember(ctx context.Context, userID, groupID string) error

	// CreateActivity schedules an activity and returns its id.
	CreateActivity(ctx context.Context, activity domain.NewActivity) (string, error)

	// ListActivitiesForUser returns scheduled activities of the user's groups in
	// creation order. An unknown user yields an empty list.
	ListActivitiesForUser(ctx context.Context, userID string) ([]domain.Activity, error)

	// TouchUser refreshes LastActive. Unknown users are ignored.
	TouchUser(ctx context.Context, id string) error
}
