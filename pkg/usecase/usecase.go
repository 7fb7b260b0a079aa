package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/utils/metrics"
)

// Timeouts bound each collaborator call. Zero means no limit.
type Timeouts struct {
	Transcribe time.Duration
	Extract    time.Duration
	Reply      time.Duration
	Synthesize time.Duration
}

// DefaultTimeouts returns the timeouts used when none are configured
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Transcribe: 30 * time.Second,
		Extract:    20 * time.Second,
		Reply:      30 * time.Second,
		Synthesize: 30 * time.Second,
	}
}

type UseCases struct {
	repo     interfaces.Repository
	Memory   *MemoryStore
	Sessions *SessionManager
	Turn     *TurnUseCase

	extractClient gollem.LLMClient
	transcoder    interfaces.AudioTranscoder
	synthesizer   interfaces.SpeechSynthesizer
	metrics       *metrics.Recorder
	timeouts      Timeouts
	replyOpts     []ReplyOption
	extractOpts   []ExtractOption
	now           func() time.Time
}

type Option func(*UseCases)

// WithExtractor enables fact extraction through an LLM client
func WithExtractor(llmClient gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.extractClient = llmClient
	}
}

// WithTranscoder converts captured audio before transcription
func WithTranscoder(t interfaces.AudioTranscoder) Option {
	return func(uc *UseCases) {
		uc.transcoder = t
	}
}

// WithSynthesizer enables spoken replies
func WithSynthesizer(s interfaces.SpeechSynthesizer) Option {
	return func(uc *UseCases) {
		uc.synthesizer = s
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(uc *UseCases) {
		uc.metrics = r
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(uc *UseCases) {
		uc.timeouts = t
	}
}

// WithReplyOptions passes options to the reply generator
func WithReplyOptions(opts ...ReplyOption) Option {
	return func(uc *UseCases) {
		uc.replyOpts = append(uc.replyOpts, opts...)
	}
}

// WithExtractOptions passes options to the fact extractor
func WithExtractOptions(opts ...ExtractOption) Option {
	return func(uc *UseCases) {
		uc.extractOpts = append(uc.extractOpts, opts...)
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, transcriber interfaces.Transcriber, chat interfaces.ChatCompleter, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		timeouts: DefaultTimeouts(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Memory = NewMemoryStore(repo.Memory())
	uc.Sessions = NewSessionManager(uc.Memory, uc.metrics)
	uc.Sessions.now = uc.now

	replyOpts := append([]ReplyOption{WithReplyTimeout(uc.timeouts.Reply)}, uc.replyOpts...)
	uc.Turn = &TurnUseCase{
		transcoder:        uc.transcoder,
		transcriber:       transcriber,
		extractor:         NewFactExtractor(uc.extractClient, uc.timeouts.Extract, uc.extractOpts...),
		store:             uc.Memory,
		reply:             NewReplyGenerator(chat, replyOpts...),
		synthesizer:       uc.synthesizer,
		turnLog:           repo.TurnLog(),
		metrics:           uc.metrics,
		transcribeTimeout: uc.timeouts.Transcribe,
		synthesizeTimeout: uc.timeouts.Synthesize,
		now:               uc.now,
	}

	return uc
}

// MemoryView is the memory panel of a session
type MemoryView struct {
	Memory   *model.UserMemory
	Context  string
	Markdown string
}

// ShowMemory returns the profile of a session as the UI renders it. A
// session that is not live is read from storage without starting it.
func (uc *UseCases) ShowMemory(ctx context.Context, id model.SessionID) (*MemoryView, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSession, err.Error(), goerr.V(SessionIDKey, id))
	}

	var m *model.UserMemory
	if sess, ok := uc.Sessions.Lookup(id); ok {
		m = sess.MemorySnapshot()
	} else {
		m = uc.Memory.Load(ctx, id)
	}

	return &MemoryView{
		Memory:   m,
		Context:  RenderMemoryContext(m),
		Markdown: RenderMemoryMarkdown(m),
	}, nil
}

// TurnLog returns archived turns of a session, newest first
func (uc *UseCases) TurnLog(ctx context.Context, id model.SessionID, limit int) ([]*model.TurnRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSession, err.Error(), goerr.V(SessionIDKey, id))
	}
	records, err := uc.repo.TurnLog().List(ctx, id, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list turn log", goerr.V(SessionIDKey, id))
	}
	return records, nil
}
