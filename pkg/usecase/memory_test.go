package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/repository/file"
	"github.com/secmon-lab/hippo/pkg/repository/memory"
	"github.com/secmon-lab/hippo/pkg/usecase"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing document loads as empty memory", func(t *testing.T) {
		store := usecase.NewMemoryStore(memory.New().Memory())
		m := store.Load(ctx, "nobody")
		gt.Bool(t, m.IsEmpty()).True()
		gt.Value(t, m.Goals).NotNil()
	})

	t.Run("saved memory is loaded back", func(t *testing.T) {
		store := usecase.NewMemoryStore(memory.New().Memory())
		m := model.NewUserMemory()
		m.Age = intPtr(42)
		m.Goals = []string{"swim"}

		gt.NoError(t, store.Save(ctx, "s1", m)).Required()
		got := store.Load(ctx, "s1")
		gt.Bool(t, got.Equal(m)).True()
	})

	t.Run("malformed document loads as empty memory", func(t *testing.T) {
		dir := t.TempDir()
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "s1.json"), []byte("{not json"), 0o600)).Required()
		repo, err := file.New(dir)
		gt.NoError(t, err).Required()

		m := usecase.NewMemoryStore(repo.Memory()).Load(ctx, "s1")
		gt.Bool(t, m.IsEmpty()).True()
	})

	t.Run("read failure loads as empty memory", func(t *testing.T) {
		repo := &failingGetRepo{MemoryRepository: memory.New().Memory(), err: errors.New("unavailable")}
		m := usecase.NewMemoryStore(repo).Load(ctx, "s1")
		gt.Bool(t, m.IsEmpty()).True()
	})

	t.Run("save failure is returned", func(t *testing.T) {
		cause := errors.New("disk full")
		repo := &failingMemoryRepo{MemoryRepository: memory.New().Memory(), err: cause}
		err := usecase.NewMemoryStore(repo).Save(ctx, "s1", model.NewUserMemory())
		gt.Error(t, err).Is(cause)
	})
}
