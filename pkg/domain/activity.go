package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Activity duration bounds, in minutes.
const (
	MinActivityDuration     = 5
	MaxActivityDuration     = 180
	DefaultActivityDuration = 60
)

// ActivityType classifies what happens during an Activity.
type ActivityType string

const (
	ActivityDiscussion           ActivityType = "discussion"
	ActivityCollaborativeProject ActivityType = "collaborative_project"
	ActivitySocialGame           ActivityType = "social_game"
	ActivityInterestSharing      ActivityType = "interest_sharing"
)

// ActivityTypes lists the known types in display order.
var ActivityTypes = []ActivityType{
	ActivityDiscussion,
	ActivityCollaborativeProject,
	ActivitySocialGame,
	ActivityInterestSharing,
}

// Valid reports whether t is one of ActivityTypes.
func (t ActivityType) Valid() bool {
	return slices.Contains(ActivityTypes, t)
}

// Label returns the user-facing name of the type.
func (t ActivityType) Label() string {
	switch t {
	case ActivityDiscussion:
		return "Discussão temática"
	case ActivityCollaborativeProject:
		return "Projeto colaborativo"
	case ActivitySocialGame:
		return "Jogo social"
	case ActivityInterestSharing:
		return "Compartilhamento de interesses"
	}
	return string(t)
}

// ActivityStatus is the lifecycle status of an Activity. Only Scheduled is used.
type ActivityStatus string

const ActivityScheduled ActivityStatus = "scheduled"

// Activity is a scheduled event inside a Group.
type Activity struct {
	ID              string         `json:"id"`
	GroupID         string         `json:"group_id"`
	Type            ActivityType   `json:"type"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	CreatedBy       string         `json:"created_by"`
	Participants    []string       `json:"participants"`
	Status          ActivityStatus `json:"status"`
	ScheduledAt     time.Time      `json:"scheduled_at"`
	DurationMinutes int            `json:"duration_minutes"`
	GuidanceEnabled bool           `json:"guidance_enabled"`
	CreatedAt       time.Time      `json:"created_at"`
}

// NewActivity carries the fields needed to create an Activity.
// A zero ScheduledAt means "now"; a zero DurationMinutes means DefaultActivityDuration.
type NewActivity struct {
	GroupID         string
	Type            ActivityType
	Title           string
	Description     string
	CreatedBy       string
	DurationMinutes int
	ScheduledAt     time.Time
}

// Validate checks the request independently of any store.
func (n NewActivity) Validate() error {
	if strings.TrimSpace(n.GroupID) == "" {
		return fmt.Errorf("%w: group id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidArgument, n.Type)
	}
	if n.DurationMinutes != 0 && (n.DurationMinutes < MinActivityDuration || n.DurationMinutes > MaxActivityDuration) {
		return fmt.Errorf("%w: duration %d outside %d-%d", ErrInvalidArgument, n.DurationMinutes, MinActivityDuration, MaxActivityDuration)
	}
	return nil
}

// NewActivityID returns a time-ordered identifier for a new activity.
func NewActivityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Build turns the request into a scheduled Activity with the given id.
func (n NewActivity) Build(id string, now time.Time) Activity {
	a := Activity{
		ID:              id,
		GroupID:         n.GroupID,
		Type:            n.Type,
		Title:           n.Title,
		Description:     n.Description,
		CreatedBy:       n.CreatedBy,
		Participants:    []string{},
		Status:          ActivityScheduled,
		ScheduledAt:     n.ScheduledAt,
		DurationMinutes: n.DurationMinutes,
		GuidanceEnabled: true,
		CreatedAt:       now,
	}
	if a.ScheduledAt.IsZero() {
		a.ScheduledAt = now
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = DefaultActivityDuration
	}
	return a
}

// Clone returns a deep copy of the activity.
func (a Activity) Clone() Activity {
	a.Participants = slices.Clone(a.Participants)
	return a
}
