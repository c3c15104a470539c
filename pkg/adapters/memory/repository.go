package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/auticonnect/pkg/domain"
)

type userRecord struct {
	mu   sync.Mutex
	user domain.User
}

type groupRecord struct {
	mu    sync.Mutex
	group domain.Group
}

// Repository implements ports.Repository in memory.
//
// The maps are guarded by a short-lived RWMutex; each user and group record has
// its own mutex so writes on different entities never contend. When both are
// needed the group record is always locked before the user record.
type Repository struct {
	mu         sync.RWMutex
	users      map[string]*userRecord
	groups     map[string]*groupRecord
	groupOrder []string

	actMu      sync.RWMutex
	activities []domain.Activity

	now   func() time.Time
	newID func() string
}

// RepositoryOption configures the Repository.
type RepositoryOption func(*Repository)

// WithClock overrides the time source.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) {
		r.now = now
	}
}

// WithActivityIDs overrides the activity id generator.
func WithActivityIDs(fn func() string) RepositoryOption {
	return func(r *Repository) {
		r.newID = fn
	}
}

// NewRepository creates an empty in-memory repository.
func NewRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{
		users:  make(map[string]*userRecord),
		groups: make(map[string]*groupRecord),
		now:    time.Now,
		newID:  domain.NewActivityID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) userRec(id string) (*userRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.users[id]
	return rec, ok
}

func (r *Repository) groupRec(id string) (*groupRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.groups[id]
	return rec, ok
}

// CreateUser registers a new user.
func (r *Repository) CreateUser(ctx context.Context, id, name string, role domain.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateNewUser(id, name, role); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[id]; exists {
		return fmt.Errorf("user %s: %w", id, domain.ErrAlreadyExists)
	}
	r.users[id] = &userRecord{user: domain.NewUser(id, name, role, r.now())}
	return nil
}

// UpdateUserProfile merges update into the participant's profile.
func (r *Repository) UpdateUserProfile(ctx context.Context, id string, update domain.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, ok := r.userRec(id)
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.user.Role != domain.RoleParticipant {
		return fmt.Errorf("%w: only participants have a profile", domain.ErrInvalidArgument)
	}
	var base domain.Profile
	if rec.user.Profile != nil {
		base = *rec.user.Profile
	}
	merged := base.Apply(update)
	rec.user.Profile = &merged
	return nil
}

// GetUser returns a copy of the user.
func (r *Repository) GetUser(ctx context.Context, id string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	rec, ok := r.userRec(id)
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.user.Clone(), nil
}

// CreateGroup stores the group and links it to its creator.
func (r *Repository) CreateGroup(ctx context.Context, ng domain.NewGroup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ng.Validate(); err != nil {
		return err
	}
	creator, ok := r.userRec(ng.CreatedBy)
	if !ok {
		return fmt.Errorf("creator %s: %w", ng.CreatedBy, domain.ErrNotFound)
	}

	// The new record is published already locked so nobody observes a group
	// whose creator does not list it yet.
	rec := &groupRecord{group: ng.Build(r.now())}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	r.mu.Lock()
	if _, exists := r.groups[ng.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("group %s: %w", ng.ID, domain.ErrAlreadyExists)
	}
	r.groups[ng.ID] = rec
	r.groupOrder = append(r.groupOrder, ng.ID)
	r.mu.Unlock()

	creator.mu.Lock()
	creator.user.Groups = append(creator.user.Groups, ng.ID)
	creator.mu.Unlock()
	return nil
}

// GetGroup returns a copy of the group.
func (r *Repository) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return domain.Group{}, err
	}
	rec, ok := r.groupRec(id)
	if !ok {
		return domain.Group{}, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.group.Clone(), nil
}

// ListGroups returns copies of every group in creation order.
func (r *Repository) ListGroups(ctx context.Context) ([]domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	recs := make([]*groupRecord, 0, len(r.groupOrder))
	for _, id := range r.groupOrder {
		recs = append(recs, r.groups[id])
	}
	r.mu.RUnlock()

	out := make([]domain.Group, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		out = append(out, rec.group.Clone())
		rec.mu.Unlock()
	}
	return out, nil
}

// AddMember joins userID to groupID.
func (r *Repository) AddMember(ctx context.Context, userID, groupID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	grec, ok := r.groupRec(groupID)
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, domain.ErrNotFound)
	}
	urec, ok := r.userRec(userID)
	if !ok {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	grec.mu.Lock()
	defer grec.mu.Unlock()
	if grec.group.HasMember(userID) {
		return nil
	}
	if grec.group.Full() {
		return fmt.Errorf("group %s: %w", groupID, domain.ErrGroupFull)
	}

	urec.mu.Lock()
	defer urec.mu.Unlock()
	now := r.now()
	grec.group.Members = append(grec.group.Members, userID)
	grec.group.LastActive = now
	if !urec.user.InGroup(groupID) {
		urec.user.Groups = append(urec.user.Groups, groupID)
	}
	return nil
}

// CreateActivity schedules an activity in an existing group.
func (r *Repository) CreateActivity(ctx context.Context, na domain.NewActivity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := na.Validate(); err != nil {
		return "", err
	}
	if _, ok := r.groupRec(na.GroupID); !ok {
		return "", fmt.Errorf("group %s: %w", na.GroupID, domain.ErrNotFound)
	}

	a := na.Build(r.newID(), r.now())
	r.actMu.Lock()
	r.activities = append(r.activities, a)
	r.actMu.Unlock()
	return a.ID, nil
}

// ListActivitiesForUser returns scheduled activities of the user's groups.
func (r *Repository) ListActivitiesForUser(ctx context.Context, userID string) ([]domain.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []domain.Activity{}
	rec, ok := r.userRec(userID)
	if !ok {
		return out, nil
	}
	rec.mu.Lock()
	groups := slices.Clone(rec.user.Groups)
	rec.mu.Unlock()

	r.actMu.RLock()
	defer r.actMu.RUnlock()
	for _, a := range r.activities {
		if a.Status == domain.ActivityScheduled && slices.Contains(groups, a.GroupID) {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// TouchUser refreshes LastActive.
func (r *Repository) TouchUser(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, ok := r.userRec(id)
	if !ok {
		return nil
	}
	rec.mu.Lock()
	rec.user.LastActive = r.now()
	rec.mu.Unlock()
	return nil
}
