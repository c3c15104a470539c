package auticonnect

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/auticonnect/pkg/domain"
)

const (
	outcomeOK           = "ok"
	outcomeRejected     = "rejected"
	outcomeDenied       = "denied"
	outcomeCommitFailed = "commit_failed"
	outcomeInternal     = "internal"
)

// outcome classifies the error returned by Handle.
func outcome(err error) string {
	var (
		verr *domain.ValidationError
		aerr *domain.AuthorizationError
		cerr *domain.CommitError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &cerr):
		return outcomeCommitFailed
	case errors.As(err, &aerr):
		return outcomeDenied
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidArgument):
		return outcomeRejected
	}
	return outcomeInternal
}

func (e *Engine) emitHandled(ctx context.Context, ev domain.Event, d time.Duration, outcome string) {
	if e.hooks.OnEventHandled == nil {
		return
	}
	e.hooks.OnEventHandled(ctx, &domain.HandledEvent{
		Timestamp: e.now(),
		UserID:    ev.UserID,
		Kind:      ev.Kind,
		Duration:  d,
		Outcome:   outcome,
	})
}

func (e *Engine) emitDialog(ctx context.Context, hook func(context.Context, *domain.DialogEvent), s *domain.Session, step, reason string, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.DialogEvent{
		Timestamp: e.now(),
		UserID:    s.UserID,
		Dialog:    s.Dialog,
		Step:      step,
		Reason:    reason,
		Err:       err,
	})
}
