package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/types"
)

// SessionID identifies one running conversation and keys its memory profile
type SessionID string

// DefaultSessionID is used by single-user deployments
const DefaultSessionID SessionID = "default"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// NewSessionID generates a new UUID v7 SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.Must(uuid.NewV7()).String())
}

// Validate checks that the ID is usable as a storage key (file name,
// document ID and object name).
func (id SessionID) Validate() error {
	if !sessionIDPattern.MatchString(string(id)) {
		return goerr.New("invalid session ID", goerr.V("session_id", string(id)))
	}
	return nil
}

func (id SessionID) String() string {
	return string(id)
}

// ConversationTurn is one entry of the append-only session history
type ConversationTurn struct {
	Role      types.Role
	Text      string
	CreatedAt time.Time
}
