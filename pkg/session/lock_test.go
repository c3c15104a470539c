package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/auticonnect/pkg/adapters/memory"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewSessionStore())
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("user-%d", i)
		_ = mgr.WithLock(ctx, id, func(ctx context.Context) error { return nil })
		_ = mgr.Remove(ctx, id)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining after release", n)
	}
}
