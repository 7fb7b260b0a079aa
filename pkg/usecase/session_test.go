package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"github.com/secmon-lab/hippo/pkg/repository/memory"
	"github.com/secmon-lab/hippo/pkg/usecase"
)

// countingRepo counts Get calls
type countingRepo struct {
	interfaces.MemoryRepository
	gets atomic.Int32
}

func (r *countingRepo) Get(ctx context.Context, sessionID model.SessionID) (*model.UserMemory, error) {
	r.gets.Add(1)
	return r.MemoryRepository.Get(ctx, sessionID)
}

func TestSessionManager_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("loads stored memory on first use", func(t *testing.T) {
		repo := memory.New()
		stored := model.NewUserMemory()
		stored.Goals = []string{"run 5k"}
		gt.NoError(t, repo.Memory().Put(ctx, "alice", stored)).Required()

		mgr := usecase.NewSessionManager(usecase.NewMemoryStore(repo.Memory()), nil)
		sess, err := mgr.Get(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Value(t, sess.ID()).Equal(model.SessionID("alice"))
		gt.Array(t, sess.MemorySnapshot().Goals).Has("run 5k")
		gt.Value(t, sess.Stage()).Equal(types.TurnStageIdle)
		gt.Array(t, sess.ConversationHistory()).Length(0)
	})

	t.Run("concurrent first use loads once", func(t *testing.T) {
		repo := &countingRepo{MemoryRepository: memory.New().Memory()}
		mgr := usecase.NewSessionManager(usecase.NewMemoryStore(repo), nil)

		var wg sync.WaitGroup
		sessions := make([]*usecase.Session, 16)
		for i := range sessions {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sess, err := mgr.Get(ctx, "bob")
				gt.NoError(t, err)
				sessions[i] = sess
			}(i)
		}
		wg.Wait()

		for _, sess := range sessions {
			gt.Value(t, sess).Equal(sessions[0])
		}
		gt.Value(t, repo.gets.Load()).Equal(int32(1))
		gt.Value(t, mgr.Len()).Equal(1)
	})

	t.Run("sessions are independent", func(t *testing.T) {
		mgr := usecase.NewSessionManager(usecase.NewMemoryStore(memory.New().Memory()), nil)
		a, err := mgr.Get(ctx, "a")
		gt.NoError(t, err).Required()
		b, err := mgr.Get(ctx, "b")
		gt.NoError(t, err).Required()
		gt.Value(t, a == b).Equal(false)
	})

	t.Run("invalid session ID is rejected", func(t *testing.T) {
		mgr := usecase.NewSessionManager(usecase.NewMemoryStore(memory.New().Memory()), nil)
		_, err := mgr.Get(ctx, "../etc/passwd")
		gt.Error(t, err).Is(usecase.ErrInvalidSession)
		gt.Value(t, mgr.Len()).Equal(0)
	})

	t.Run("Create generates a new session", func(t *testing.T) {
		mgr := usecase.NewSessionManager(usecase.NewMemoryStore(memory.New().Memory()), nil)
		sess, err := mgr.Create(ctx)
		gt.NoError(t, err).Required()
		gt.NoError(t, sess.ID().Validate())

		found, ok := mgr.Lookup(sess.ID())
		gt.Bool(t, ok).True()
		gt.Value(t, found).Equal(sess)
	})
}

func TestSession_Snapshots(t *testing.T) {
	initial := model.NewUserMemory()
	initial.Goals = []string{"swim"}
	sess := usecase.NewSessionForTest("s1", initial)

	snap := sess.MemorySnapshot()
	snap.Goals[0] = "changed"
	snap.Goals = append(snap.Goals, "added")

	gt.Value(t, sess.MemorySnapshot().Goals).Equal([]string{"swim"})
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionManager_EvictIdle(t *testing.T) {
	ctx := context.Background()

	t.Run("drops sessions idle longer than the limit", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
		uc := usecase.New(memory.New(), &mockTranscriber{text: "hi"}, &mockChat{reply: "hello"}, usecase.WithClock(clock.Now))

		_, err := uc.Sessions.Get(ctx, "old")
		gt.NoError(t, err).Required()
		clock.Advance(20 * time.Minute)
		_, err = uc.Sessions.Get(ctx, "recent")
		gt.NoError(t, err).Required()
		clock.Advance(15 * time.Minute)

		gt.Value(t, uc.Sessions.EvictIdle(ctx, 30*time.Minute)).Equal(1)
		_, ok := uc.Sessions.Lookup("old")
		gt.Bool(t, ok).False()
		_, ok = uc.Sessions.Lookup("recent")
		gt.Bool(t, ok).True()
	})

	t.Run("a turn refreshes activity", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
		uc := usecase.New(memory.New(), &mockTranscriber{text: "hi"}, &mockChat{reply: "hello"}, usecase.WithClock(clock.Now))

		sess, err := uc.Sessions.Get(ctx, "alice")
		gt.NoError(t, err).Required()
		clock.Advance(25 * time.Minute)
		_, err = uc.Turn.SubmitUtteranceText(ctx, sess, "still here")
		gt.NoError(t, err).Required()
		clock.Advance(10 * time.Minute)

		gt.Value(t, uc.Sessions.EvictIdle(ctx, 30*time.Minute)).Equal(0)
		gt.Value(t, uc.Sessions.Len()).Equal(1)
	})

	t.Run("keeps sessions with unsaved memory", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
		repo := newBrokenRepository(errors.New("disk full"))
		uc := usecase.New(repo, &mockTranscriber{text: "hi"}, &mockChat{reply: "hello"}, usecase.WithClock(clock.Now))

		sess, err := uc.Sessions.Get(ctx, "alice")
		gt.NoError(t, err).Required()
		result, err := uc.Turn.SubmitUtteranceText(ctx, sess, "remember me")
		gt.NoError(t, err).Required()
		gt.Bool(t, result.Persisted).False()

		clock.Advance(time.Hour)
		gt.Value(t, uc.Sessions.EvictIdle(ctx, 30*time.Minute)).Equal(0)
		_, ok := uc.Sessions.Lookup("alice")
		gt.Bool(t, ok).True()
	})

	t.Run("evicted session starts again from storage", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
		repo := memory.New()
		uc := usecase.New(repo, &mockTranscriber{text: "hi"}, &mockChat{reply: "hello"}, usecase.WithClock(clock.Now))

		sess, err := uc.Sessions.Get(ctx, "alice")
		gt.NoError(t, err).Required()
		stored := model.NewUserMemory()
		stored.Goals = []string{"swim"}
		gt.NoError(t, repo.Memory().Put(ctx, "alice", stored)).Required()
		gt.Array(t, sess.MemorySnapshot().Goals).Length(0)

		clock.Advance(time.Hour)
		gt.Value(t, uc.Sessions.EvictIdle(ctx, 30*time.Minute)).Equal(1)

		reloaded, err := uc.Sessions.Get(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, reloaded.MemorySnapshot().Goals).Has("swim")
	})
}
