package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/secmon-lab/hippo/pkg/utils/errutil"
)

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.uc.Sessions.Create(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to create session"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID().String()})
}

// submitTurn runs one turn for the raw audio in the request body
func (s *Server) submitTurn(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if !acceptableAudioType(r.Header.Get("Content-Type")) {
		writeError(w, http.StatusUnsupportedMediaType, "request body must be audio", "")
		return
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxAudioSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "audio is too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read audio", "")
		return
	}

	result, err := s.uc.Turn.SubmitUtteranceAudio(r.Context(), sess, audio)
	if err != nil {
		s.writeTurnError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTurnResponse(result))
}

func (s *Server) writeTurnError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, usecase.ErrTranscription) {
		writeError(w, http.StatusUnprocessableEntity, usecase.MsgTranscribeFailed, types.TurnStageTranscribing.String())
		return
	}
	errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
}

func (s *Server) showMemory(w http.ResponseWriter, r *http.Request) {
	id := sessionIDParam(r)
	view, err := s.uc.ShowMemory(r.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSession) {
			writeError(w, http.StatusBadRequest, "invalid session ID", "")
			return
		}
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toMemoryViewResponse(id, view))
}

// showHistory returns the conversation of a live session. History is not
// persisted, so a session that is not live has none.
func (s *Server) showHistory(w http.ResponseWriter, r *http.Request) {
	id := sessionIDParam(r)
	if err := id.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID", "")
		return
	}

	resp := historyResponse{
		SessionID: id.String(),
		Turns:     []historyEntryResponse{},
	}

	var history []model.ConversationTurn
	if sess, ok := s.uc.Sessions.Lookup(id); ok {
		resp.Live = true
		history = sess.ConversationHistory()
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", "")
			return
		}
		if n > 0 && len(history) > n {
			history = history[len(history)-n:]
		}
	}

	for _, t := range history {
		resp.Turns = append(resp.Turns, historyEntryResponse{
			Role:      t.Role.String(),
			Text:      t.Text,
			CreatedAt: t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// acceptableAudioType reports whether a request Content-Type can carry an
// utterance. An empty type is accepted for clients that send raw bytes.
func acceptableAudioType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "audio/") ||
		mediaType == "video/webm" ||
		mediaType == "application/octet-stream"
}
