package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Hooks(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics()
	h := m.Hooks()

	h.OnEventHandled(ctx, &domain.HandledEvent{Kind: domain.EventText, Outcome: "ok", Duration: 20 * time.Millisecond})
	h.OnEventHandled(ctx, &domain.HandledEvent{Kind: domain.EventText, Outcome: "rejected"})
	h.OnDialogStart(ctx, &domain.DialogEvent{Dialog: domain.DialogProfile})
	h.OnDialogComplete(ctx, &domain.DialogEvent{Dialog: domain.DialogProfile})
	h.OnDialogAbort(ctx, &domain.DialogEvent{Dialog: domain.DialogGroupCreation, Reason: "replaced"})
	h.OnStepRejected(ctx, &domain.DialogEvent{Dialog: domain.DialogProfile, Step: "age"})
	h.OnCommitFailed(ctx, &domain.DialogEvent{Dialog: domain.DialogRegistration})
	h.OnMediation(ctx, &domain.MediationEvent{Scope: domain.ScopeDirect, Escalate: true})
	h.OnMediation(ctx, &domain.MediationEvent{Scope: domain.ScopeGroup, Err: errors.New("down")})

	out := scrape(t, m)
	for _, line := range []string{
		`auticonnect_events_total{kind="text",outcome="ok"} 1`,
		`auticonnect_events_total{kind="text",outcome="rejected"} 1`,
		`auticonnect_event_duration_seconds_count{kind="text"} 2`,
		`auticonnect_dialogs_total{dialog="profile",stage="started"} 1`,
		`auticonnect_dialogs_total{dialog="profile",stage="completed"} 1`,
		`auticonnect_dialogs_total{dialog="group_creation",stage="aborted"} 1`,
		`auticonnect_step_rejections_total{dialog="profile",step="age"} 1`,
		`auticonnect_commit_failures_total{dialog="registration"} 1`,
		`auticonnect_mediations_total{result="ok",scope="direct"} 1`,
		`auticonnect_mediations_total{result="error",scope="group"} 1`,
		`auticonnect_escalations_total 1`,
	} {
		assert.Contains(t, out, line)
	}
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{
		OnDialogStart: func(context.Context, *domain.DialogEvent) { order = append(order, "a") },
	}
	b := domain.LifecycleHooks{
		OnDialogStart:  func(context.Context, *domain.DialogEvent) { order = append(order, "b") },
		OnCommitFailed: func(context.Context, *domain.DialogEvent) { order = append(order, "b-fail") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnDialogStart(context.Background(), &domain.DialogEvent{})
	h.OnCommitFailed(context.Background(), &domain.DialogEvent{})
	assert.Equal(t, []string{"a", "b", "b-fail"}, order)
	assert.Nil(t, h.OnMediation)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, slog.LevelDebug, logging.FormatText)
	h := observability.LoggingHooks(logger)
	ctx := context.Background()

	h.OnCommitFailed(ctx, &domain.DialogEvent{UserID: "u1", Dialog: domain.DialogProfile, Err: errors.New("disk full")})
	h.OnMediation(ctx, &domain.MediationEvent{UserID: "u1", Scope: domain.ScopeDirect, Escalate: true})

	out := buf.String()
	assert.Contains(t, out, "Dialog commit failed")
	assert.Contains(t, out, "err=\"disk full\"")
	assert.Contains(t, out, "Mediation escalated")
	assert.Contains(t, out, "level=WARN")
}
