package usecase

import (
	"time"

	"github.com/secmon-lab/hippo/pkg/domain/model"
)

// DecodeFacts is exported for testing
var DecodeFacts = decodeFacts

// BuildReplySystemPrompt is exported for testing
var BuildReplySystemPrompt = buildReplySystemPrompt

// ExtractSystemPrompt is exported for testing
var ExtractSystemPrompt = extractSystemPrompt

// NewSessionForTest creates a session with the given memory
func NewSessionForTest(id model.SessionID, memory *model.UserMemory) *Session {
	return newSession(id, memory, time.Now())
}
