package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role defines what a User is allowed to do. It never changes after registration.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleFacilitator Role = "facilitator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleParticipant || r == RoleFacilitator
}

// Label returns the user-facing name of the role.
func (r Role) Label() string {
	switch r {
	case RoleParticipant:
		return "Participante"
	case RoleFacilitator:
		return "Auxiliar Terapêutico (AT)"
	}
	return string(r)
}

// Gender is the self-declared gender of a Participant.
type Gender string

const (
	GenderMale        Gender = "masculino"
	GenderFemale      Gender = "feminino"
	GenderNonBinary   Gender = "nao-binario"
	GenderUndisclosed Gender = "nao-informado"
)

// Genders lists the accepted gender tokens in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderNonBinary, GenderUndisclosed}

// Valid reports whether g is one of Genders.
func (g Gender) Valid() bool {
	return slices.Contains(Genders, g)
}

// CommunicationStyle is how a Participant prefers to be addressed.
type CommunicationStyle string

const (
	StyleDirect   CommunicationStyle = "direct"
	StyleDetailed CommunicationStyle = "detailed"
)

// Valid reports whether s is a known style.
func (s CommunicationStyle) Valid() bool {
	return s == StyleDirect || s == StyleDetailed
}

// Profile holds the onboarding answers of a Participant.
type Profile struct {
	Age                int                `json:"age"`
	Gender             Gender             `json:"gender"`
	EmergencyContacts  []string           `json:"emergency_contacts"`
	AcademicHistory    string             `json:"academic_history"`
	Professionals      []string           `json:"professionals"`
	Interests          []string           `json:"interests"`
	AnxietyTriggers    []string           `json:"anxiety_triggers"`
	CommunicationStyle CommunicationStyle `json:"communication_style"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	p.EmergencyContacts = slices.Clone(p.EmergencyContacts)
	p.Professionals = slices.Clone(p.Professionals)
	p.Interests = slices.Clone(p.Interests)
	p.AnxietyTriggers = slices.Clone(p.AnxietyTriggers)
	return p
}

// ProfileUpdate is a partial Profile. Nil fields are left untouched by Apply.
type ProfileUpdate struct {
	Age                *int
	Gender             *Gender
	EmergencyContacts  []string
	AcademicHistory    *string
	Professionals      []string
	Interests          []string
	AnxietyTriggers    []string
	CommunicationStyle *CommunicationStyle
}

// FullUpdate converts a complete Profile into an update that overwrites every field.
func FullUpdate(p Profile) ProfileUpdate {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return slices.Clone(s)
	}
	return ProfileUpdate{
		Age:                &p.Age,
		Gender:             &p.Gender,
		EmergencyContacts:  nonNil(p.EmergencyContacts),
		AcademicHistory:    &p.AcademicHistory,
		Professionals:      nonNil(p.Professionals),
		Interests:          nonNil(p.Interests),
		AnxietyTriggers:    nonNil(p.AnxietyTriggers),
		CommunicationStyle: &p.CommunicationStyle,
	}
}

// Apply merges u into p and returns the result. p is not modified.
func (p Profile) Apply(u ProfileUpdate) Profile {
	out := p.Clone()
	if u.Age != nil {
		out.Age = *u.Age
	}
	if u.Gender != nil {
		out.Gender = *u.Gender
	}
	if u.EmergencyContacts != nil {
		out.EmergencyContacts = slices.Clone(u.EmergencyContacts)
	}
	if u.AcademicHistory != nil {
		out.AcademicHistory = *u.AcademicHistory
	}
	if u.Professionals != nil {
		out.Professionals = slices.Clone(u.Professionals)
	}
	if u.Interests != nil {
		out.Interests = slices.Clone(u.Interests)
	}
	if u.AnxietyTriggers != nil {
		out.AnxietyTriggers = slices.Clone(u.AnxietyTriggers)
	}
	if u.CommunicationStyle != nil {
		out.CommunicationStyle = *u.CommunicationStyle
	}
	return out
}

// User is a registered person.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	Groups     []string  `json:"groups"`
	Profile    *Profile  `json:"profile,omitempty"` // Participants only
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// ValidateNewUser checks the arguments of a user registration.
func ValidateNewUser(id, name string, role Role) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	case !role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}
	return nil
}

// NewUser builds a freshly registered user. Participants start with an empty profile.
func NewUser(id, name string, role Role, now time.Time) User {
	u := User{
		ID:         id,
		Name:       name,
		Role:       role,
		Groups:     []string{},
		CreatedAt:  now,
		LastActive: now,
	}
	if role == RoleParticipant {
		u.Profile = &Profile{}
	}
	return u
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	u.Groups = slices.Clone(u.Groups)
	if u.Groups == nil {
		u.Groups = []string{}
	}
	if u.Profile != nil {
		p := u.Profile.Clone()
		u.Profile = &p
	}
	return u
}

// InGroup reports whether the user already belongs to groupID.
func (u User) InGroup(groupID string) bool {
	return slices.Contains(u.Groups, groupID)
}
