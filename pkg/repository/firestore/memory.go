package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// memoryDoc is the Firestore document representation of model.UserMemory
type memoryDoc struct {
	Age         *int      `firestore:"age"`
	Goals       []string  `firestore:"goals"`
	Preferences []string  `firestore:"preferences"`
	Motivations []string  `firestore:"motivations"`
	Conditions  []string  `firestore:"conditions"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func toMemoryDoc(m *model.UserMemory) *memoryDoc {
	c := m.Clone()
	return &memoryDoc{
		Age:         c.Age,
		Goals:       c.Goals,
		Preferences: c.Preferences,
		Motivations: c.Motivations,
		Conditions:  c.Conditions,
		UpdatedAt:   time.Now().UTC(),
	}
}

func fromMemoryDoc(d *memoryDoc) *model.UserMemory {
	m := &model.UserMemory{
		Age:         d.Age,
		Goals:       d.Goals,
		Preferences: d.Preferences,
		Motivations: d.Motivations,
		Conditions:  d.Conditions,
	}
	return m.Normalize()
}

type memoryRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMemoryRepository(client *firestore.Client) *memoryRepository {
	return &memoryRepository{client: client}
}

func (r *memoryRepository) doc(sessionID model.SessionID) *firestore.DocumentRef {
	return r.client.Collection(r.collectionPrefix + SessionsCollection).Doc(string(sessionID))
}

func (r *memoryRepository) Get(ctx context.Context, sessionID model.SessionID) (*model.UserMemory, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session for memory")
	}

	doc, err := r.doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("session_id", sessionID))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("session_id", sessionID))
	}

	var d memoryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory", goerr.V("session_id", sessionID))
	}

	return fromMemoryDoc(&d), nil
}

// Put uses Set without merge options, which replaces the whole document
func (r *memoryRepository) Put(ctx context.Context, sessionID model.SessionID, mem *model.UserMemory) error {
	if err := sessionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session for memory")
	}

	if _, err := r.doc(sessionID).Set(ctx, toMemoryDoc(mem)); err != nil {
		return goerr.Wrap(err, "failed to save memory", goerr.V("session_id", sessionID))
	}
	return nil
}
