package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"github.com/secmon-lab/hippo/pkg/repository/memory"
)

func runTurnLogRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("List returns records newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		sessionID := newSessionID()
		base := time.Now().UTC().Truncate(time.Millisecond)

		for i, text := range []string{"first", "second", "third"} {
			gt.NoError(t, repo.TurnLog().Append(ctx, &model.TurnRecord{
				ID:         model.NewTurnID(),
				SessionID:  sessionID,
				Transcript: text,
				Persisted:  true,
				CreatedAt:  base.Add(time.Duration(i) * time.Second),
			})).Required()
		}

		records, err := repo.TurnLog().List(ctx, sessionID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(3).Required()
		gt.Value(t, records[0].Transcript).Equal("third")
		gt.Value(t, records[2].Transcript).Equal("first")

		limited, err := repo.TurnLog().List(ctx, sessionID, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, limited).Length(2)
	})

	t.Run("errors are preserved", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		sessionID := newSessionID()

		gt.NoError(t, repo.TurnLog().Append(ctx, &model.TurnRecord{
			ID:         model.NewTurnID(),
			SessionID:  sessionID,
			Transcript: "hello",
			Errors: []model.TurnError{
				{Stage: types.TurnStageGenerating, Message: "reply unavailable"},
			},
			CreatedAt: time.Now().UTC(),
		})).Required()

		records, err := repo.TurnLog().List(ctx, sessionID, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(1).Required()
		gt.Array(t, records[0].Errors).Length(1).Required()
		gt.Value(t, records[0].Errors[0].Stage).Equal(types.TurnStageGenerating)
	})

	t.Run("unknown session has no records", func(t *testing.T) {
		repo := newRepo(t)
		records, err := repo.TurnLog().List(context.Background(), newSessionID(), 10)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(0)
	})
}

func TestMemoryTurnLogRepository(t *testing.T) {
	runTurnLogRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFileTurnLogRepository(t *testing.T) {
	runTurnLogRepositoryTest(t, newFileRepository)
}

func TestFirestoreTurnLogRepository(t *testing.T) {
	runTurnLogRepositoryTest(t, newFirestoreRepository)
}

func TestGCSTurnLogRepository(t *testing.T) {
	runTurnLogRepositoryTest(t, newGCSRepository)
}
