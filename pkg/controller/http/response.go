package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/usecase"
)

type memoryResponse struct {
	Age         *int     `json:"age"`
	Goals       []string `json:"goals"`
	Preferences []string `json:"preferences"`
	Motivations []string `json:"motivations"`
	Conditions  []string `json:"conditions"`
}

func toMemoryResponse(m *model.UserMemory) memoryResponse {
	if m == nil {
		m = model.NewUserMemory()
	}
	m = m.Clone()
	return memoryResponse{
		Age:         m.Age,
		Goals:       m.Goals,
		Preferences: m.Preferences,
		Motivations: m.Motivations,
		Conditions:  m.Conditions,
	}
}

func toFactsResponse(f *model.ExtractedFacts) memoryResponse {
	if f == nil {
		f = model.NewEmptyFacts()
	}
	return toMemoryResponse(&model.UserMemory{
		Age:         f.Age,
		Goals:       f.Goals,
		Preferences: f.Preferences,
		Motivations: f.Motivations,
		Conditions:  f.Conditions,
	})
}

type turnErrorResponse struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type turnResponse struct {
	TurnID         string              `json:"turn_id"`
	SessionID      string              `json:"session_id"`
	Transcript     string              `json:"transcript"`
	ExtractedFacts memoryResponse      `json:"extracted_facts"`
	Memory         memoryResponse      `json:"memory"`
	ReplyText      string              `json:"reply_text"`
	ReplyAudio     []byte              `json:"reply_audio,omitempty"`
	AudioFormat    string              `json:"audio_format,omitempty"`
	Persisted      bool                `json:"persisted"`
	Errors         []turnErrorResponse `json:"errors"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     time.Time           `json:"finished_at"`
}

func toTurnResponse(r *model.TurnResult) *turnResponse {
	resp := &turnResponse{
		TurnID:         string(r.TurnID),
		SessionID:      string(r.SessionID),
		Transcript:     r.Transcript,
		ExtractedFacts: toFactsResponse(r.ExtractedFacts),
		Memory:         toMemoryResponse(r.UpdatedMemory),
		ReplyText:      r.ReplyText,
		Persisted:      r.Persisted,
		Errors:         make([]turnErrorResponse, 0, len(r.Errors)),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
	if r.HasAudio() {
		resp.ReplyAudio = r.ReplyAudio
		resp.AudioFormat = r.AudioFormat
	}
	for _, e := range r.Errors {
		resp.Errors = append(resp.Errors, turnErrorResponse{Stage: e.Stage.String(), Message: e.Message})
	}
	return resp
}

type memoryViewResponse struct {
	SessionID string         `json:"session_id"`
	Memory    memoryResponse `json:"memory"`
	Context   string         `json:"context"`
	Markdown  string         `json:"markdown"`
}

func toMemoryViewResponse(id model.SessionID, v *usecase.MemoryView) *memoryViewResponse {
	return &memoryViewResponse{
		SessionID: string(id),
		Memory:    toMemoryResponse(v.Memory),
		Context:   v.Context,
		Markdown:  v.Markdown,
	}
}

type historyEntryResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type historyResponse struct {
	SessionID string                 `json:"session_id"`
	Live      bool                   `json:"live"`
	Turns     []historyEntryResponse `json:"turns"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

func writeError(w http.ResponseWriter, status int, msg, stage string) {
	writeJSON(w, status, errorResponse{Error: msg, Stage: stage})
}
