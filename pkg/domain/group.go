package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Group membership bounds accepted at creation time.
const (
	MinGroupMembers = 2
	MaxGroupMembers = 50
)

// Group is a support group owned by a Facilitator.
// The creator is always Members[0].
type Group struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Theme            string    `json:"theme"`
	Description      string    `json:"description"`
	CreatedBy        string    `json:"created_by"`
	Members          []string  `json:"members"`
	MaxMembers       int       `json:"max_members"`
	MediationEnabled bool      `json:"mediation_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	LastActive       time.Time `json:"last_active"`
}

// NewGroup carries the fields needed to create a Group.
type NewGroup struct {
	ID          string
	Name        string
	Theme       string
	Description string
	CreatedBy   string
	MaxMembers  int
}

// Validate checks the request independently of any store.
func (n NewGroup) Validate() error {
	switch {
	case strings.TrimSpace(n.ID) == "":
		return fmt.Errorf("%w: group id is required", ErrInvalidArgument)
	case strings.TrimSpace(n.Name) == "":
		return fmt.Errorf("%w: group name is required", ErrInvalidArgument)
	case strings.TrimSpace(n.CreatedBy) == "":
		return fmt.Errorf("%w: creator is required", ErrInvalidArgument)
	case n.MaxMembers < MinGroupMembers:
		return fmt.Errorf("%w: max members must be at least %d", ErrInvalidArgument, MinGroupMembers)
	}
	return nil
}

// Build turns the request into a Group with the creator as first member.
func (n NewGroup) Build(now time.Time) Group {
	return Group{
		ID:               n.ID,
		Name:             n.Name,
		Theme:            n.Theme,
		Description:      n.Description,
		CreatedBy:        n.CreatedBy,
		Members:          []string{n.CreatedBy},
		MaxMembers:       n.MaxMembers,
		MediationEnabled: true,
		CreatedAt:        now,
		LastActive:       now,
	}
}

// HasMember reports whether userID is in the group.
func (g Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// Full reports whether no seat is left.
func (g Group) Full() bool {
	return len(g.Members) >= g.MaxMembers
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	g.Members = slices.Clone(g.Members)
	return g
}
