package mediation

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
)

// DefaultGroupCooldown is the minimum gap between two interventions in one group chat.
const DefaultGroupCooldown = 2 * time.Minute

// maxTrackedChats triggers pruning of expired cooldown entries.
const maxTrackedChats = 1024

// Throttle limits group-scope mediation to one intervention per chat per cooldown.
// Direct messages and crisis messages always pass through.
type Throttle struct {
	next     ports.Mediator
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// ThrottleOption configures a Throttle.
type ThrottleOption func(*Throttle)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ThrottleOption {
	return func(t *Throttle) {
		t.now = now
	}
}

// NewThrottle wraps next. A cooldown <= 0 means DefaultGroupCooldown.
func NewThrottle(next ports.Mediator, cooldown time.Duration, opts ...ThrottleOption) *Throttle {
	if cooldown <= 0 {
		cooldown = DefaultGroupCooldown
	}
	t := &Throttle{
		next:     next,
		cooldown: cooldown,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Mediate implements ports.Mediator. A throttled request yields an empty reply.
func (t *Throttle) Mediate(ctx context.Context, req domain.MediationRequest) (domain.Mediation, error) {
	if req.Scope != domain.ScopeGroup || Detect(req.Text) {
		return t.next.Mediate(ctx, req)
	}

	key := req.ChatID
	if key == "" {
		key = req.UserID
	}
	now := t.now()

	t.mu.Lock()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.cooldown {
		t.mu.Unlock()
		return domain.Mediation{}, nil
	}
	t.last[key] = now
	if len(t.last) > maxTrackedChats {
		for k, at := range t.last {
			if now.Sub(at) >= t.cooldown {
				delete(t.last, k)
			}
		}
	}
	t.mu.Unlock()

	return t.next.Mediate(ctx, req)
}
