package file_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/repository/file"
)

func TestFile_LockStripes(t *testing.T) {
	repo, err := file.New(t.TempDir())
	gt.NoError(t, err).Required()

	t.Run("a session always maps to the same lock", func(t *testing.T) {
		id := model.NewSessionID()
		gt.Bool(t, repo.SameLockForTest(id, id)).True()
		gt.Value(t, file.LockStripeForTest(id)).Equal(file.LockStripeForTest(id))
	})

	t.Run("stripes stay bounded however many sessions are seen", func(t *testing.T) {
		seen := make(map[int]struct{})
		for range 10000 {
			idx := file.LockStripeForTest(model.NewSessionID())
			gt.Number(t, idx).GreaterOrEqual(0)
			gt.Number(t, idx).Less(file.LockStripes)
			seen[idx] = struct{}{}
		}
		gt.Number(t, len(seen)).LessOrEqual(file.LockStripes)
		gt.Number(t, len(seen)).Greater(1)
	})

	t.Run("concurrent writes to many sessions all land", func(t *testing.T) {
		ctx := context.Background()
		ids := make([]model.SessionID, 200)
		for i := range ids {
			ids[i] = model.NewSessionID()
		}

		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				mem := model.NewUserMemory()
				age := i
				mem.Age = &age
				gt.NoError(t, repo.Memory().Put(ctx, id, mem))
			}()
		}
		wg.Wait()

		for i, id := range ids {
			mem, err := repo.Memory().Get(ctx, id)
			gt.NoError(t, err).Required()
			gt.Value(t, *mem.Age).Equal(i)
		}
	})
}
