package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/secmon-lab/hippo/pkg/utils/metrics"
	"golang.org/x/sync/singleflight"
)

// Session is one running conversation: its memory profile, its
// append-only history and the pipeline stage of its current turn.
type Session struct {
	id model.SessionID

	// turn serializes pipeline executions of this session
	turn sync.Mutex

	mu         sync.RWMutex
	stage      types.TurnStage
	memory     *model.UserMemory
	history    []model.ConversationTurn
	lastActive time.Time
	// unsaved is set while the in-memory profile is ahead of storage
	unsaved bool
}

func newSession(id model.SessionID, memory *model.UserMemory, now time.Time) *Session {
	if memory == nil {
		memory = model.NewUserMemory()
	}
	return &Session{
		id:         id,
		stage:      types.TurnStageIdle,
		memory:     memory,
		history:    []model.ConversationTurn{},
		lastActive: now,
	}
}

// ID returns the session ID
func (s *Session) ID() model.SessionID {
	return s.id
}

// Stage returns the pipeline stage of the running turn, Idle between turns
func (s *Session) Stage() types.TurnStage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// MemorySnapshot returns a copy of the current profile
func (s *Session) MemorySnapshot() *model.UserMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memory.Clone()
}

// ConversationHistory returns a copy of the turns so far, oldest first
func (s *Session) ConversationHistory() []model.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]model.ConversationTurn, len(s.history))
	copy(history, s.history)
	return history
}

func (s *Session) transition(ctx context.Context, next types.TurnStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stage.CanTransition(next) {
		logging.From(ctx).Warn("unexpected turn stage transition",
			SessionIDKey, s.id,
			"from", s.stage,
			"to", next,
		)
	}
	s.stage = next
}

func (s *Session) currentMemory() *model.UserMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memory
}

func (s *Session) setMemory(m *model.UserMemory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = m
}

func (s *Session) appendHistory(turns ...model.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turns...)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastActive) {
		s.lastActive = now
	}
}

func (s *Session) markPersisted(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsaved = !ok
}

// idleFor reports whether the session can be dropped: no turn running, no
// unsaved memory and no activity for at least idle.
func (s *Session) idleFor(now time.Time, idle time.Duration) bool {
	if !s.turn.TryLock() {
		return false
	}
	defer s.turn.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.unsaved && now.Sub(s.lastActive) >= idle
}

// SessionManager keeps live sessions in memory and bootstraps each one
// from its stored profile on first use.
type SessionManager struct {
	store   *MemoryStore
	metrics *metrics.Recorder
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[model.SessionID]*Session
	group    singleflight.Group
}

// NewSessionManager creates a SessionManager
func NewSessionManager(store *MemoryStore, recorder *metrics.Recorder) *SessionManager {
	return &SessionManager{
		store:    store,
		metrics:  recorder,
		now:      time.Now,
		sessions: make(map[model.SessionID]*Session),
	}
}

// Create starts a new session with a generated ID
func (m *SessionManager) Create(ctx context.Context) (*Session, error) {
	return m.Get(ctx, model.NewSessionID())
}

// Get returns the live session, loading its memory from storage the first
// time the ID is seen. Concurrent first calls share one load.
func (m *SessionManager) Get(ctx context.Context, id model.SessionID) (*Session, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSession, err.Error(), goerr.V(SessionIDKey, id))
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.touch(m.now())
		return sess, nil
	}

	v, _, _ := m.group.Do(string(id), func() (any, error) {
		m.mu.RLock()
		existing, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}

		started := time.Now()
		created := newSession(id, m.store.Load(ctx, id), m.now())

		m.mu.Lock()
		m.sessions[id] = created
		count := len(m.sessions)
		m.mu.Unlock()

		m.metrics.SetSessions(count)
		logging.From(ctx).Info("session started",
			SessionIDKey, id,
			"load_duration", time.Since(started),
		)
		return created, nil
	})

	return v.(*Session), nil
}

// Lookup returns a live session without loading it
func (m *SessionManager) Lookup(id model.SessionID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle drops live sessions that had no activity for idle. Their memory
// is already in storage, so a later Get starts them again from there.
func (m *SessionManager) EvictIdle(ctx context.Context, idle time.Duration) int {
	now := m.now()

	m.mu.Lock()
	evicted := 0
	for id, sess := range m.sessions {
		if sess.idleFor(now, idle) {
			delete(m.sessions, id)
			evicted++
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if evicted > 0 {
		m.metrics.SetSessions(count)
		logging.From(ctx).Info("idle sessions evicted", "evicted", evicted, "remaining", count)
	}
	return evicted
}
