package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/secmon-lab/hippo/pkg/utils/errutil"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
)

// Frame types sent to websocket clients
const (
	frameTypeTurn  = "turn"
	frameTypeError = "error"
	frameTypeText  = "text"
)

const wsWriteTimeout = 10 * time.Second

// wsFrame is a JSON text frame. Clients send {"type":"text","text":...}
// for typed utterances; the server sends "turn" and "error" frames.
type wsFrame struct {
	Type  string        `json:"type"`
	Text  string        `json:"text,omitempty"`
	Turn  *turnResponse `json:"turn,omitempty"`
	Error string        `json:"error,omitempty"`
	Stage string        `json:"stage,omitempty"`
}

// serveWebSocket relays utterances of one session. Each binary frame is
// one recorded utterance; frames are handled in arrival order.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	ctx := r.Context()
	logger := logging.From(ctx).With(usecase.SessionIDKey, sess.ID())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debug("failed to close websocket", "error", err)
		}
	}()
	conn.SetReadLimit(s.maxAudioSize)

	logger.Info("websocket connected")
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket closed unexpectedly", "error", err)
			} else {
				logger.Info("websocket disconnected")
			}
			return
		}

		var result *model.TurnResult
		switch msgType {
		case websocket.BinaryMessage:
			result, err = s.uc.Turn.SubmitUtteranceAudio(ctx, sess, data)
		case websocket.TextMessage:
			var frame wsFrame
			if jsonErr := json.Unmarshal(data, &frame); jsonErr != nil || frame.Type != frameTypeText {
				if !s.writeFrame(conn, wsFrame{Type: frameTypeError, Error: "unsupported frame"}) {
					return
				}
				continue
			}
			result, err = s.uc.Turn.SubmitUtteranceText(ctx, sess, frame.Text)
		default:
			continue
		}

		frame := wsFrame{Type: frameTypeTurn}
		switch {
		case err == nil:
			frame.Turn = toTurnResponse(result)
		case errors.Is(err, usecase.ErrTranscription):
			frame = wsFrame{Type: frameTypeError, Error: usecase.MsgTranscribeFailed, Stage: types.TurnStageTranscribing.String()}
		default:
			_ = errutil.Handle(ctx, err, "websocket turn failed")
			frame = wsFrame{Type: frameTypeError, Error: "internal error"}
		}

		if !s.writeFrame(conn, frame) {
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame wsFrame) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return false
	}
	return conn.WriteJSON(frame) == nil
}
