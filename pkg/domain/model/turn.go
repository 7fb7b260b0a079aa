package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/hippo/pkg/domain/types"
)

// TurnID is a UUID v7 identifier of one pipeline execution
type TurnID string

// NewTurnID generates a new TurnID
func NewTurnID() TurnID {
	return TurnID(uuid.Must(uuid.NewV7()).String())
}

// TurnError is a recovered failure of one stage, kept for the UI
type TurnError struct {
	Stage   types.TurnStage
	Message string
}

// TurnResult is the full output of one turn. A turn that reaches the
// end always produces a well-formed result even when later stages failed.
type TurnResult struct {
	TurnID         TurnID
	SessionID      SessionID
	Transcript     string
	ExtractedFacts *ExtractedFacts
	UpdatedMemory  *UserMemory
	ReplyText      string
	ReplyAudio     []byte
	AudioFormat    string
	// Persisted is false when saving the updated memory failed
	Persisted  bool
	Errors     []TurnError
	StartedAt  time.Time
	FinishedAt time.Time
}

// HasReply reports whether the language model produced a reply
func (r *TurnResult) HasReply() bool {
	return r.ReplyText != ""
}

// HasAudio reports whether speech synthesis produced audio
func (r *TurnResult) HasAudio() bool {
	return len(r.ReplyAudio) > 0
}

// ErrorAt returns the recorded error of a stage, if any
func (r *TurnResult) ErrorAt(stage types.TurnStage) (TurnError, bool) {
	for _, e := range r.Errors {
		if e.Stage == stage {
			return e, true
		}
	}
	return TurnError{}, false
}

// TurnRecord is the archived form of a completed turn
type TurnRecord struct {
	ID         TurnID
	SessionID  SessionID
	Transcript string
	ReplyText  string
	Persisted  bool
	Errors     []TurnError
	CreatedAt  time.Time
}

// NewTurnRecord builds the archive record of a result
func NewTurnRecord(r *TurnResult) *TurnRecord {
	return &TurnRecord{
		ID:         r.TurnID,
		SessionID:  r.SessionID,
		Transcript: r.Transcript,
		ReplyText:  r.ReplyText,
		Persisted:  r.Persisted,
		Errors:     append([]TurnError(nil), r.Errors...),
		CreatedAt:  r.FinishedAt,
	}
}
