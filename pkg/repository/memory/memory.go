package memory

import (
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
)

// ErrNotFound is returned when no document exists for a session
var ErrNotFound = interfaces.ErrNotFound

// Memory keeps profiles and the turn log in process. Everything is lost on
// exit; it backs tests and throwaway sessions.
type Memory struct {
	memory  *memoryRepository
	turnLog *turnLogRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		memory:  newMemoryRepository(),
		turnLog: newTurnLogRepository(),
	}
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memory
}

func (m *Memory) TurnLog() interfaces.TurnLogRepository {
	return m.turnLog
}

func (m *Memory) Close() error {
	return nil
}
