package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/auticonnect/pkg/domain"
)

// LoggingHooks logs every lifecycle event. Routine transitions go to Debug,
// failures and escalations to Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	dialog := func(level slog.Level, msg string) func(context.Context, *domain.DialogEvent) {
		return func(ctx context.Context, e *domain.DialogEvent) {
			attrs := []any{"user_id", e.UserID, "dialog", e.Dialog}
			if e.Step != "" {
				attrs = append(attrs, "step", e.Step)
			}
			if e.Reason != "" {
				attrs = append(attrs, "reason", e.Reason)
			}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.Log(ctx, level, msg, attrs...)
		}
	}

	return domain.LifecycleHooks{
		OnEventHandled: func(ctx context.Context, e *domain.HandledEvent) {
			logger.DebugContext(ctx, "Event handled",
				"user_id", e.UserID, "kind", e.Kind, "outcome", e.Outcome, "duration", e.Duration)
		},
		OnDialogStart:    dialog(slog.LevelDebug, "Dialog started"),
		OnStepAccepted:   dialog(slog.LevelDebug, "Step accepted"),
		OnStepRejected:   dialog(slog.LevelDebug, "Step rejected"),
		OnDialogComplete: dialog(slog.LevelInfo, "Dialog completed"),
		OnDialogAbort:    dialog(slog.LevelDebug, "Dialog aborted"),
		OnCommitFailed:   dialog(slog.LevelWarn, "Dialog commit failed"),
		OnMediation: func(ctx context.Context, e *domain.MediationEvent) {
			switch {
			case e.Err != nil:
				logger.WarnContext(ctx, "Mediation failed", "user_id", e.UserID, "scope", e.Scope, "err", e.Err)
			case e.Escalate:
				logger.WarnContext(ctx, "Mediation escalated", "user_id", e.UserID, "scope", e.Scope)
			default:
				logger.DebugContext(ctx, "Mediation replied", "user_id", e.UserID, "scope", e.Scope)
			}
		},
	}
}

// Combine returns hooks that call each set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnEventHandled = chain(out.OnEventHandled, h.OnEventHandled)
		out.OnDialogStart = chain(out.OnDialogStart, h.OnDialogStart)
		out.OnStepAccepted = chain(out.OnStepAccepted, h.OnStepAccepted)
		out.OnStepRejected = chain(out.OnStepRejected, h.OnStepRejected)
		out.OnDialogComplete = chain(out.OnDialogComplete, h.OnDialogComplete)
		out.OnDialogAbort = chain(out.OnDialogAbort, h.OnDialogAbort)
		out.OnCommitFailed = chain(out.OnCommitFailed, h.OnCommitFailed)
		out.OnMediation = chain(out.OnMediation, h.OnMediation)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
