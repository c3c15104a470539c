package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/aretw0/auticonnect/pkg/ports"
)

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 30 * time.Minute

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// ExpireFunc is notified when a stale session is evicted.
type ExpireFunc func(ctx context.Context, s *domain.Session)

// Manager orchestrates session access, serializing work per user.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active per-user locks

	locker  ports.DistributedLocker
	lockTTL time.Duration

	ttl      time.Duration
	now      func() time.Time
	onExpire ExpireFunc
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTTL sets the staleness TTL. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithExpireHook registers a callback for evicted sessions.
func WithExpireHook(fn ExpireFunc) Option {
	return func(m *Manager) {
		m.onExpire = fn
	}
}

// NewManager creates a session Manager over the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured staleness TTL.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(userID) after unlocking.
func (m *Manager) acquire(userID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// WithLock executes fn while holding the user's lock.
// Load, Save and Delete do not lock; call them from inside fn.
func (m *Manager) WithLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	entry := m.acquire(userID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(userID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, userID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// A cancelled request context must not leak the lease.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Load returns the user's live session, evicting it when stale.
// Returns domain.ErrSessionNotFound when there is none.
func (m *Manager) Load(ctx context.Context, userID string) (*domain.Session, error) {
	s, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.Stale(m.now(), m.ttl) {
		if err := m.evict(ctx, s); err != nil {
			return nil, err
		}
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Save stamps UpdatedAt and persists the session.
func (m *Manager) Save(ctx context.Context, s *domain.Session) error {
	s.UpdatedAt = m.now()
	return m.store.Save(ctx, s.UserID, s)
}

// Delete removes the user's session.
func (m *Manager) Delete(ctx context.Context, userID string) error {
	return m.store.Delete(ctx, userID)
}

// Inspect loads a session under the user's lock.
func (m *Manager) Inspect(ctx context.Context, userID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		var err error
		s, err = m.Load(ctx, userID)
		return err
	})
	return s, err
}

// Remove deletes a session under the user's lock.
func (m *Manager) Remove(ctx context.Context, userID string) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		return m.Delete(ctx, userID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

func (m *Manager) evict(ctx context.Context, s *domain.Session) error {
	if err := m.store.Delete(ctx, s.UserID); err != nil {
		return fmt.Errorf("failed to evict stale session: %w", err)
	}
	m.logger.Debug("Evicted stale session", "user_id", s.UserID, "dialog", s.Dialog)
	if m.onExpire != nil {
		m.onExpire(ctx, s)
	}
	return nil
}

// Sweep evicts every stale session and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	if m.ttl <= 0 {
		return 0, nil
	}
	ids, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	evicted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}
		err := m.WithLock(ctx, id, func(ctx context.Context) error {
			s, err := m.store.Load(ctx, id)
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if !s.Stale(m.now(), m.ttl) {
				return nil
			}
			evicted++
			return m.evict(ctx, s)
		})
		if err != nil {
			m.logger.Warn("Sweep failed for session", "user_id", id, "err", err)
		}
	}
	return evicted, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				m.logger.Warn("Session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				m.logger.Info("Swept stale sessions", "count", n)
			}
		}
	}
}
