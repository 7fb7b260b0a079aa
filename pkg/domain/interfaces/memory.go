package interfaces

import (
	"context"

	"github.com/secmon-lab/hippo/pkg/domain/model"
)

// MemoryRepository persists one UserMemory document per session
type MemoryRepository interface {
	// Get returns the stored profile. A missing document is reported by
	// wrapping ErrNotFound.
	Get(ctx context.Context, sessionID model.SessionID) (*model.UserMemory, error)

	// Put replaces the whole stored document with memory
	Put(ctx context.Context, sessionID model.SessionID, memory *model.UserMemory) error
}
