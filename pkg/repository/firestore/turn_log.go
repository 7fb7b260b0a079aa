package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type turnErrorDoc struct {
	Stage   string `firestore:"stage"`
	Message string `firestore:"message"`
}

type turnRecordDoc struct {
	ID         string         `firestore:"id"`
	SessionID  string         `firestore:"session_id"`
	Transcript string         `firestore:"transcript"`
	ReplyText  string         `firestore:"reply_text"`
	Persisted  bool           `firestore:"persisted"`
	Errors     []turnErrorDoc `firestore:"errors"`
	CreatedAt  time.Time      `firestore:"created_at"`
}

func toTurnRecordDoc(r *model.TurnRecord) *turnRecordDoc {
	doc := &turnRecordDoc{
		ID:         string(r.ID),
		SessionID:  string(r.SessionID),
		Transcript: r.Transcript,
		ReplyText:  r.ReplyText,
		Persisted:  r.Persisted,
		Errors:     make([]turnErrorDoc, 0, len(r.Errors)),
		CreatedAt:  r.CreatedAt,
	}
	for _, e := range r.Errors {
		doc.Errors = append(doc.Errors, turnErrorDoc{Stage: e.Stage.String(), Message: e.Message})
	}
	return doc
}

func fromTurnRecordDoc(d *turnRecordDoc) *model.TurnRecord {
	r := &model.TurnRecord{
		ID:         model.TurnID(d.ID),
		SessionID:  model.SessionID(d.SessionID),
		Transcript: d.Transcript,
		ReplyText:  d.ReplyText,
		Persisted:  d.Persisted,
		CreatedAt:  d.CreatedAt,
	}
	for _, e := range d.Errors {
		r.Errors = append(r.Errors, model.TurnError{Stage: types.TurnStage(e.Stage), Message: e.Message})
	}
	return r
}

type turnLogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTurnLogRepository(client *firestore.Client) *turnLogRepository {
	return &turnLogRepository{client: client}
}

// turnsCollection returns the subcollection path:
// sessions/{sessionID}/turns
func (r *turnLogRepository) turnsCollection(sessionID model.SessionID) *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + SessionsCollection).Doc(string(sessionID)).
		Collection(TurnsCollection)
}

func (r *turnLogRepository) Append(ctx context.Context, record *model.TurnRecord) error {
	if err := record.SessionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session for turn log")
	}

	docRef := r.turnsCollection(record.SessionID).Doc(string(record.ID))
	if _, err := docRef.Set(ctx, toTurnRecordDoc(record)); err != nil {
		return goerr.Wrap(err, "failed to append turn log", goerr.V("turn_id", record.ID))
	}
	return nil
}

func (r *turnLogRepository) List(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.TurnRecord, error) {
	query := r.turnsCollection(sessionID).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	records := make([]*model.TurnRecord, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate turn log", goerr.V("session_id", sessionID))
		}

		var d turnRecordDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal turn record")
		}
		records = append(records, fromTurnRecordDoc(&d))
	}

	return records, nil
}
