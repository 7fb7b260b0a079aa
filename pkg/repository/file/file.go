package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/repository/jsondoc"
	"github.com/secmon-lab/hippo/pkg/utils/safe"
)

// ErrNotFound is returned when no document exists for a session
var ErrNotFound = interfaces.ErrNotFound

// File stores one JSON document per session under a directory:
//
//	{dir}/{sessionID}.json        memory profile
//	{dir}/{sessionID}.turns.jsonl turn log
type File struct {
	dir     string
	locks   [lockStripes]sync.Mutex
	memory  *memoryRepository
	turnLog *turnLogRepository
}

// lockStripes is the number of mutexes shared by all sessions. Sessions
// hashing to the same stripe serialize their file access.
const lockStripes = 64

var _ interfaces.Repository = &File{}

// New creates the directory if needed
func New(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
	}

	f := &File{dir: dir}
	f.memory = &memoryRepository{root: f}
	f.turnLog = &turnLogRepository{root: f}
	return f, nil
}

func (f *File) Memory() interfaces.MemoryRepository {
	return f.memory
}

func (f *File) TurnLog() interfaces.TurnLogRepository {
	return f.turnLog
}

func (f *File) Close() error {
	return nil
}

// lock returns the stripe mutex guarding the session's files. Callers
// hold at most one stripe at a time.
func (f *File) lock(sessionID model.SessionID) *sync.Mutex {
	return &f.locks[lockStripe(sessionID)]
}

func lockStripe(sessionID model.SessionID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % lockStripes)
}

func (f *File) path(sessionID model.SessionID, suffix string) (string, error) {
	if err := sessionID.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, string(sessionID)+suffix), nil
}

type memoryRepository struct {
	root *File
}

func (r *memoryRepository) Get(ctx context.Context, sessionID model.SessionID) (*model.UserMemory, error) {
	path, err := r.root.path(sessionID, ".json")
	if err != nil {
		return nil, goerr.Wrap(err, "invalid session for memory")
	}

	l := r.root.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	// #nosec G304 - path is built from a validated session ID
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("session_id", sessionID))
		}
		return nil, goerr.Wrap(err, "failed to read memory", goerr.V("path", path))
	}

	mem, err := jsondoc.DecodeMemory(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("path", path))
	}
	return mem, nil
}

// Put replaces the document atomically: write a temp file in the same
// directory, then rename over the old one.
func (r *memoryRepository) Put(ctx context.Context, sessionID model.SessionID, mem *model.UserMemory) error {
	path, err := r.root.path(sessionID, ".json")
	if err != nil {
		return goerr.Wrap(err, "invalid session for memory")
	}

	data, err := jsondoc.EncodeMemory(mem)
	if err != nil {
		return err
	}

	l := r.root.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	tmp, err := os.CreateTemp(r.root.dir, "."+string(sessionID)+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("dir", r.root.dir))
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to write memory", goerr.V("path", tmpName))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to sync memory", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close memory file", goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return goerr.Wrap(err, "failed to replace memory", goerr.V("path", path))
	}

	return nil
}

type turnLogRepository struct {
	root *File
}

func (r *turnLogRepository) Append(ctx context.Context, record *model.TurnRecord) error {
	path, err := r.root.path(record.SessionID, ".turns.jsonl")
	if err != nil {
		return goerr.Wrap(err, "invalid session for turn log")
	}

	line, err := jsondoc.EncodeTurnRecord(record)
	if err != nil {
		return err
	}

	l := r.root.lock(record.SessionID)
	l.Lock()
	defer l.Unlock()

	// #nosec G304 - path is built from a validated session ID
	fd, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return goerr.Wrap(err, "failed to open turn log", goerr.V("path", path))
	}
	defer safe.Close(ctx, fd)

	if _, err := fd.Write(append(line, '\n')); err != nil {
		return goerr.Wrap(err, "failed to append turn log", goerr.V("path", path))
	}
	return nil
}

func (r *turnLogRepository) List(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.TurnRecord, error) {
	path, err := r.root.path(sessionID, ".turns.jsonl")
	if err != nil {
		return nil, goerr.Wrap(err, "invalid session for turn log")
	}

	l := r.root.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	// #nosec G304 - path is built from a validated session ID
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*model.TurnRecord{}, nil
		}
		return nil, goerr.Wrap(err, "failed to read turn log", goerr.V("path", path))
	}

	records := make([]*model.TurnRecord, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := jsondoc.DecodeTurnRecord(line)
		if err != nil {
			return nil, goerr.Wrap(err, "corrupted turn log", goerr.V("path", path))
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to scan turn log", goerr.V("path", path))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}
