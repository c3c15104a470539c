package domain

import (
	"maps"
	"time"
)

// DialogKind identifies one of the multi-step dialogs.
type DialogKind string

const (
	DialogRegistration     DialogKind = "registration"
	DialogProfile          DialogKind = "profile"
	DialogGroupCreation    DialogKind = "group_creation"
	DialogActivityCreation DialogKind = "activity_creation"
)

// Session is the scratch space of one in-progress dialog. A user has at most one.
type Session struct {
	UserID string     `json:"user_id"`
	Dialog DialogKind `json:"dialog"`
	// Step is the index of the step awaiting input.
	Step int `json:"step"`
	// Answers maps step name to the parsed value accepted for it.
	Answers   map[string]any `json:"answers"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSession creates a session positioned at the first step of kind.
func NewSession(userID string, kind DialogKind, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Dialog:    kind,
		Answers:   make(map[string]any),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy whose Answers map can be mutated independently.
// Answer values are treated as immutable.
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = maps.Clone(s.Answers)
	if c.Answers == nil {
		c.Answers = make(map[string]any)
	}
	return &c
}

// Stale reports whether the session was last updated more than ttl before now.
// A non-positive ttl disables staleness.
func (s *Session) Stale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}
