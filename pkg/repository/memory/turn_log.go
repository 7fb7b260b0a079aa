package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/secmon-lab/hippo/pkg/domain/model"
)

type turnLogRepository struct {
	mu      sync.RWMutex
	records map[model.SessionID][]*model.TurnRecord
}

func newTurnLogRepository() *turnLogRepository {
	return &turnLogRepository{
		records: make(map[model.SessionID][]*model.TurnRecord),
	}
}

func copyTurnRecord(r *model.TurnRecord) *model.TurnRecord {
	copied := *r
	copied.Errors = slices.Clone(r.Errors)
	return &copied
}

func (r *turnLogRepository) Append(ctx context.Context, record *model.TurnRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.SessionID] = append(r.records[record.SessionID], copyTurnRecord(record))
	return nil
}

func (r *turnLogRepository) List(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.TurnRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.records[sessionID]
	result := make([]*model.TurnRecord, 0, len(bucket))
	for _, rec := range bucket {
		result = append(result, copyTurnRecord(rec))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}
