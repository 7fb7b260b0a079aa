package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
)

// MemoryStore loads and saves the memory profile of a session
type MemoryStore struct {
	repo interfaces.MemoryRepository
}

// NewMemoryStore creates a MemoryStore over a repository
func NewMemoryStore(repo interfaces.MemoryRepository) *MemoryStore {
	return &MemoryStore{repo: repo}
}

// Load returns the stored profile. A missing or unreadable document yields
// a fresh empty profile; the failure is logged, never returned.
func (s *MemoryStore) Load(ctx context.Context, sessionID model.SessionID) *model.UserMemory {
	m, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			logging.From(ctx).Warn("failed to load memory, starting empty",
				"error", err,
				SessionIDKey, sessionID,
			)
		}
		return model.NewUserMemory()
	}
	if m == nil {
		return model.NewUserMemory()
	}
	return m.Normalize()
}

// Save replaces the whole stored document
func (s *MemoryStore) Save(ctx context.Context, sessionID model.SessionID, m *model.UserMemory) error {
	if err := s.repo.Put(ctx, sessionID, m.Clone()); err != nil {
		return goerr.Wrap(err, "failed to save memory", goerr.V(SessionIDKey, sessionID))
	}
	return nil
}
