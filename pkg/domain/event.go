package domain

// EventKind classifies an inbound event.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventText    EventKind = "text"
	EventChoice  EventKind = "choice"
)

// Scope tells whether the event came from a private chat or a group chat.
type Scope string

const (
	ScopeDirect Scope = "direct"
	ScopeGroup  Scope = "group"
)

// Event is a transport-neutral inbound message tagged with the sender's id.
type Event struct {
	UserID string    `json:"user_id"`
	Kind   EventKind `json:"kind"`
	// Value is the command name (without slash), the text body or the choice token.
	Value       string   `json:"value"`
	Args        []string `json:"args,omitempty"`
	Scope       Scope    `json:"scope,omitempty"`
	ChatID      string   `json:"chat_id,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
}

// Command builds a command event.
func Command(userID, name string, args ...string) Event {
	return Event{UserID: userID, Kind: EventCommand, Value: name, Args: args, Scope: ScopeDirect}
}

// Text builds a free-text event.
func Text(userID, body string) Event {
	return Event{UserID: userID, Kind: EventText, Value: body, Scope: ScopeDirect}
}

// Choice builds a button-press event.
func Choice(userID, token string) Event {
	return Event{UserID: userID, Kind: EventChoice, Value: token, Scope: ScopeDirect}
}

// Button is a selectable option rendered by the transport.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Reply is what the transport renders back to the user.
type Reply struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
	// Escalate is set when mediation flagged the message for human attention.
	Escalate bool `json:"escalate,omitempty"`
}

// MediationRequest is the input of the mediation gateway.
type MediationRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	// Role is empty for unregistered users.
	Role   Role   `json:"role,omitempty"`
	Scope  Scope  `json:"scope"`
	ChatID string `json:"chat_id,omitempty"`
}

// Mediation is the output of the mediation gateway.
type Mediation struct {
	Reply    string `json:"reply"`
	Escalate bool   `json:"escalate"`
}
