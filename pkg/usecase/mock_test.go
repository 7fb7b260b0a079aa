package usecase_test

import (
	"context"
	"sync"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/repository/memory"
)

// mockTranscriber returns a fixed transcript unless transcribeFn is set
type mockTranscriber struct {
	mu           sync.Mutex
	text         string
	transcribeFn func(ctx context.Context, audio []byte) (string, error)
	calls        int
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.transcribeFn != nil {
		return m.transcribeFn(ctx, audio)
	}
	return m.text, nil
}

type chatCall struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// mockChat records every call and replies with reply unless chatFn is set
type mockChat struct {
	mu     sync.Mutex
	reply  string
	chatFn func(ctx context.Context, system, user string) (string, error)
	calls  []chatCall
}

func (m *mockChat) ChatComplete(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, chatCall{System: system, User: user, MaxTokens: maxTokens, Temperature: temperature})
	m.mu.Unlock()
	if m.chatFn != nil {
		return m.chatFn(ctx, system, user)
	}
	return m.reply, nil
}

func (m *mockChat) Calls() []chatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chatCall(nil), m.calls...)
}

// mockSynthesizer returns audio unless err is set
type mockSynthesizer struct {
	mu    sync.Mutex
	audio []byte
	err   error
	texts []string
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return m.audio, nil
}

func (m *mockSynthesizer) Format() string {
	return "mp3"
}

func (m *mockSynthesizer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// generateFn answers one Generate call of a gollem session
type generateFn func(ctx context.Context, input []gollem.Input) (*gollem.Response, error)

// llmAnswering returns a gollem client whose sessions all share one
// SessionMock, so Generate calls can be inspected afterwards.
func llmAnswering(fn generateFn) (*mock.LLMClientMock, *mock.SessionMock) {
	session := &mock.SessionMock{
		GenerateFunc: func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
			return fn(ctx, input)
		},
	}
	client := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return session, nil
		},
	}
	return client, session
}

// factsLLM returns an LLM client that answers every extraction with text
func factsLLM(text string) *mock.LLMClientMock {
	client, _ := llmAnswering(func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
		return &gollem.Response{Texts: []string{text}}, nil
	})
	return client
}

// factsByUtterance answers extraction depending on the utterance
func factsByUtterance(answers map[string]string) *mock.LLMClientMock {
	client, _ := llmAnswering(func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
		text, _ := input[0].(gollem.Text)
		if answer, ok := answers[string(text)]; ok {
			return &gollem.Response{Texts: []string{answer}}, nil
		}
		return &gollem.Response{Texts: []string{`{}`}}, nil
	})
	return client
}

// failingMemoryRepo wraps a repository and fails every Put
type failingMemoryRepo struct {
	interfaces.MemoryRepository
	err error
}

func (r *failingMemoryRepo) Put(ctx context.Context, sessionID model.SessionID, m *model.UserMemory) error {
	return r.err
}

// brokenRepository serves memory from a failing store
type brokenRepository struct {
	base *memory.Memory
	mem  interfaces.MemoryRepository
}

func (r *brokenRepository) Memory() interfaces.MemoryRepository {
	return r.mem
}

func (r *brokenRepository) TurnLog() interfaces.TurnLogRepository {
	return r.base.TurnLog()
}

func (r *brokenRepository) Close() error {
	return r.base.Close()
}

func newBrokenRepository(err error) *brokenRepository {
	base := memory.New()
	return &brokenRepository{
		base: base,
		mem:  &failingMemoryRepo{MemoryRepository: base.Memory(), err: err},
	}
}

// failingGetRepo fails every Get
type failingGetRepo struct {
	interfaces.MemoryRepository
	err error
}

func (r *failingGetRepo) Get(ctx context.Context, sessionID model.SessionID) (*model.UserMemory, error) {
	return nil, r.err
}

func intPtr(v int) *int {
	return &v
}
