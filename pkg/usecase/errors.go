package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrTranscription aborts a turn: there is no utterance to act on
	ErrTranscription = errors.New("transcription failed")

	// ErrEmptyTranscript is wrapped into ErrTranscription when the
	// transcriber returns only whitespace
	ErrEmptyTranscript = errors.New("empty transcript")

	ErrInvalidSession = errors.New("invalid session")
	ErrNoAudio        = errors.New("no audio")
)

// Context keys for error values
const (
	SessionIDKey = "session_id"
	TurnIDKey    = "turn_id"
	StageKey     = "stage"
)
