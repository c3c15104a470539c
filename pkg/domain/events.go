package domain

import (
	"context"
	"time"
)

// DialogEvent describes a dialog lifecycle transition.
type DialogEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	UserID    string     `json:"user_id"`
	Dialog    DialogKind `json:"dialog"`
	Step      string     `json:"step,omitempty"`
	// Reason explains aborts ("replaced", "cancelled", "restarted", "expired") and rejections.
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

// MediationEvent describes one call to the mediation gateway.
type MediationEvent struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Scope     Scope     `json:"scope"`
	Escalate  bool      `json:"escalate"`
	Err       error     `json:"-"`
}

// HandledEvent summarizes one inbound event once the engine is done with it.
type HandledEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	UserID    string        `json:"user_id"`
	Kind      EventKind     `json:"kind"`
	Duration  time.Duration `json:"duration"`
	// Outcome is "ok", "rejected", "denied", "commit_failed" or "internal".
	Outcome string `json:"outcome"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every field is optional.
type LifecycleHooks struct {
	OnEventHandled   func(context.Context, *HandledEvent)
	OnDialogStart    func(context.Context, *DialogEvent)
	OnStepAccepted   func(context.Context, *DialogEvent)
	OnStepRejected   func(context.Context, *DialogEvent)
	OnDialogComplete func(context.Context, *DialogEvent)
	OnDialogAbort    func(context.Context, *DialogEvent)
	OnCommitFailed   func(context.Context, *DialogEvent)
	OnMediation      func(context.Context, *MediationEvent)
}
