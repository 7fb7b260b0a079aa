package interfaces

import (
	"context"

	"github.com/secmon-lab/hippo/pkg/domain/model"
)

// TurnLogRepository archives completed turns. It is write-mostly and is
// never used to restore conversation history.
type TurnLogRepository interface {
	Append(ctx context.Context, record *model.TurnRecord) error

	// List returns up to limit records of a session, newest first
	List(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.TurnRecord, error)
}
