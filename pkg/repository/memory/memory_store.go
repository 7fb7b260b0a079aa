package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/model"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[model.SessionID]*model.UserMemory
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries: make(map[model.SessionID]*model.UserMemory),
	}
}

func (r *memoryRepository) Get(ctx context.Context, sessionID model.SessionID) (*model.UserMemory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mem, exists := r.entries[sessionID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("session_id", sessionID))
	}

	return mem.Clone(), nil
}

func (r *memoryRepository) Put(ctx context.Context, sessionID model.SessionID, mem *model.UserMemory) error {
	if err := sessionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session for memory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[sessionID] = mem.Clone()
	return nil
}
