// Package jsondoc is the JSON document layout shared by the file and
// Cloud Storage backends. The memory document keeps the five top level
// keys written by earlier versions: age, goals, preferences, motivations
// and conditions.
package jsondoc

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"github.com/secmon-lab/hippo/pkg/utils/lenient"
)

type memoryDoc struct {
	Age         *int     `json:"age"`
	Goals       []string `json:"goals"`
	Preferences []string `json:"preferences"`
	Motivations []string `json:"motivations"`
	Conditions  []string `json:"conditions"`
}

type rawMemoryDoc struct {
	Age              json.RawMessage `json:"age"`
	Goals            json.RawMessage `json:"goals"`
	Preferences      json.RawMessage `json:"preferences"`
	Motivations      json.RawMessage `json:"motivations"`
	Conditions       json.RawMessage `json:"conditions"`
	HealthConditions json.RawMessage `json:"health_conditions"`
}

// EncodeMemory serializes the whole profile
func EncodeMemory(mem *model.UserMemory) ([]byte, error) {
	m := mem.Clone()
	data, err := json.MarshalIndent(memoryDoc{
		Age:         m.Age,
		Goals:       m.Goals,
		Preferences: m.Preferences,
		Motivations: m.Motivations,
		Conditions:  m.Conditions,
	}, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode memory document")
	}
	return data, nil
}

// DecodeMemory parses a memory document. Data that is not a JSON object is
// an error; missing or mistyped fields decode as empty.
func DecodeMemory(data []byte) (*model.UserMemory, error) {
	var raw rawMemoryDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "malformed memory document")
	}

	mem := &model.UserMemory{
		Age:         lenient.Age(raw.Age),
		Goals:       lenient.StringList(raw.Goals),
		Preferences: lenient.StringList(raw.Preferences),
		Motivations: lenient.StringList(raw.Motivations),
		Conditions:  lenient.StringList(raw.Conditions),
	}
	mem.Conditions = append(mem.Conditions, lenient.StringList(raw.HealthConditions)...)

	return mem.Normalize(), nil
}

type turnErrorDoc struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type turnRecordDoc struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Transcript string         `json:"transcript"`
	ReplyText  string         `json:"reply_text"`
	Persisted  bool           `json:"persisted"`
	Errors     []turnErrorDoc `json:"errors,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// EncodeTurnRecord serializes one archived turn as a single JSON line
func EncodeTurnRecord(r *model.TurnRecord) ([]byte, error) {
	doc := turnRecordDoc{
		ID:         string(r.ID),
		SessionID:  string(r.SessionID),
		Transcript: r.Transcript,
		ReplyText:  r.ReplyText,
		Persisted:  r.Persisted,
		CreatedAt:  r.CreatedAt,
	}
	for _, e := range r.Errors {
		doc.Errors = append(doc.Errors, turnErrorDoc{Stage: e.Stage.String(), Message: e.Message})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode turn record", goerr.V("turn_id", r.ID))
	}
	return data, nil
}

// DecodeTurnRecord parses one line written by EncodeTurnRecord
func DecodeTurnRecord(data []byte) (*model.TurnRecord, error) {
	var doc turnRecordDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "malformed turn record")
	}

	r := &model.TurnRecord{
		ID:         model.TurnID(doc.ID),
		SessionID:  model.SessionID(doc.SessionID),
		Transcript: doc.Transcript,
		ReplyText:  doc.ReplyText,
		Persisted:  doc.Persisted,
		CreatedAt:  doc.CreatedAt,
	}
	for _, e := range doc.Errors {
		r.Errors = append(r.Errors, model.TurnError{Stage: types.TurnStage(e.Stage), Message: e.Message})
	}
	return r, nil
}
