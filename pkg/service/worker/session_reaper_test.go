package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/repository/memory"
	"github.com/secmon-lab/hippo/pkg/service/worker"
	"github.com/secmon-lab/hippo/pkg/usecase"
)

// mockEvicter records every eviction call
type mockEvicter struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (m *mockEvicter) EvictIdle(ctx context.Context, idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, idle)
	return 0
}

func (m *mockEvicter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestSessionReaper_EvictsPeriodically(t *testing.T) {
	evicter := &mockEvicter{}
	reaper := worker.NewSessionReaper(evicter, 30*time.Minute, 10*time.Millisecond)

	reaper.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for evicter.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	reaper.Stop()

	gt.Number(t, evicter.callCount()).GreaterOrEqual(2)
	evicter.mu.Lock()
	defer evicter.mu.Unlock()
	gt.Value(t, evicter.calls[0]).Equal(30 * time.Minute)
}

func TestSessionReaper_StopsOnContextCancel(t *testing.T) {
	evicter := &mockEvicter{}
	reaper := worker.NewSessionReaper(evicter, time.Minute, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	reaper.Start(ctx)
	cancel()

	// Stop must not block once the loop has exited
	done := make(chan struct{})
	go func() {
		reaper.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop")
	}
	gt.Value(t, evicter.callCount()).Equal(0)
}

func TestSessionReaper_WithSessionManager(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New(), nil, nil)
	_, err := uc.Sessions.Get(ctx, "alice")
	gt.NoError(t, err).Required()

	reaper := worker.NewSessionReaper(uc.Sessions, 0, 10*time.Millisecond)
	reaper.Start(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for uc.Sessions.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	reaper.Stop()

	gt.Value(t, uc.Sessions.Len()).Equal(0)
}
