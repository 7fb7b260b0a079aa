package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/hippo/pkg/utils/logging"
)

// SessionEvicter drops sessions that had no activity for a while
type SessionEvicter interface {
	EvictIdle(ctx context.Context, idle time.Duration) int
}

// SessionReaper periodically evicts idle live sessions so that a long
// running server does not keep every conversation it has ever seen.
//
// Architecture assumptions:
// - Single server instance; sessions are not shared between processes
type SessionReaper struct {
	sessions SessionEvicter
	idle     time.Duration
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSessionReaper creates a worker evicting sessions idle for idle,
// checking every interval
func NewSessionReaper(sessions SessionEvicter, idle, interval time.Duration) *SessionReaper {
	return &SessionReaper{
		sessions: sessions,
		idle:     idle,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the eviction loop in a background goroutine
func (w *SessionReaper) Start(ctx context.Context) {
	logging.Default().Info("Session reaper starting",
		"idle", w.idle.String(),
		"interval", w.interval.String())

	go w.run(ctx)
}

// Stop signals the worker to stop and waits for completion
func (w *SessionReaper) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Session reaper stopped")
}

func (w *SessionReaper) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sessions.EvictIdle(ctx, w.idle)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Session reaper context cancelled")
			return
		}
	}
}
