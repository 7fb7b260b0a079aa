package gcs

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/repository/jsondoc"
	"github.com/secmon-lab/hippo/pkg/utils/safe"
	"google.golang.org/api/iterator"
)

// ErrNotFound is returned when no object exists for a session
var ErrNotFound = interfaces.ErrNotFound

// GCS stores the memory document of each session as one object:
//
//	gs://{bucket}/{prefix}{sessionID}/memory.json
//	gs://{bucket}/{prefix}{sessionID}/turns/{turnID}.json
type GCS struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	prefix  string
	memory  *memoryRepository
	turnLog *turnLogRepository
}

var _ interfaces.Repository = &GCS{}

type Option func(*GCS)

// WithPrefix sets the object name prefix, e.g. "hippo/"
func WithPrefix(prefix string) Option {
	return func(g *GCS) {
		g.prefix = prefix
	}
}

func New(ctx context.Context, bucket string, opts ...Option) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	g := &GCS{
		client: client,
		bucket: client.Bucket(bucket),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.memory = &memoryRepository{root: g}
	g.turnLog = &turnLogRepository{root: g}

	return g, nil
}

func (g *GCS) Memory() interfaces.MemoryRepository {
	return g.memory
}

func (g *GCS) TurnLog() interfaces.TurnLogRepository {
	return g.turnLog
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) sessionPrefix(sessionID model.SessionID) string {
	return g.prefix + string(sessionID) + "/"
}

func (g *GCS) read(ctx context.Context, name string) ([]byte, error) {
	r, err := g.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrNotFound, "object not found", goerr.V("object", name))
		}
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("object", name))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("object", name))
	}
	return data, nil
}

// write uploads data as a new generation of the object, replacing it
func (g *GCS) write(ctx context.Context, name string, data []byte) error {
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("object", name))
	}
	return nil
}

type memoryRepository struct {
	root *GCS
}

func (r *memoryRepository) object(sessionID model.SessionID) string {
	return r.root.sessionPrefix(sessionID) + "memory.json"
}

func (r *memoryRepository) Get(ctx context.Context, sessionID model.SessionID) (*model.UserMemory, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session for memory")
	}

	data, err := r.root.read(ctx, r.object(sessionID))
	if err != nil {
		return nil, err
	}

	mem, err := jsondoc.DecodeMemory(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("session_id", sessionID))
	}
	return mem, nil
}

func (r *memoryRepository) Put(ctx context.Context, sessionID model.SessionID, mem *model.UserMemory) error {
	if err := sessionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session for memory")
	}

	data, err := jsondoc.EncodeMemory(mem)
	if err != nil {
		return err
	}
	return r.root.write(ctx, r.object(sessionID), data)
}

type turnLogRepository struct {
	root *GCS
}

func (r *turnLogRepository) Append(ctx context.Context, record *model.TurnRecord) error {
	if err := record.SessionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session for turn log")
	}

	data, err := jsondoc.EncodeTurnRecord(record)
	if err != nil {
		return err
	}

	name := path.Join(r.root.sessionPrefix(record.SessionID), "turns", string(record.ID)+".json")
	return r.root.write(ctx, name, data)
}

func (r *turnLogRepository) List(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.TurnRecord, error) {
	prefix := r.root.sessionPrefix(sessionID) + "turns/"
	it := r.root.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	records := make([]*model.TurnRecord, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list turn log", goerr.V("prefix", prefix))
		}

		data, err := r.root.read(ctx, attrs.Name)
		if err != nil {
			return nil, err
		}
		rec, err := jsondoc.DecodeTurnRecord(data)
		if err != nil {
			return nil, goerr.Wrap(err, "corrupted turn record", goerr.V("object", attrs.Name))
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}
