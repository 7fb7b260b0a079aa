package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
)

// Reply generation defaults
const (
	DefaultReplyMaxTokens   = 100
	DefaultReplyTemperature = 0.7
)

// ReplyGenerator produces the coach's answer to one utterance using the
// rendered memory as background.
type ReplyGenerator struct {
	chat        interfaces.ChatCompleter
	persona     string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// ReplyOption configures ReplyGenerator
type ReplyOption func(*ReplyGenerator)

// WithPersona replaces the persona sentence of the system prompt
func WithPersona(persona string) ReplyOption {
	return func(g *ReplyGenerator) {
		if persona != "" {
			g.persona = persona
		}
	}
}

// WithReplyLimits sets max tokens and temperature
func WithReplyLimits(maxTokens int, temperature float32) ReplyOption {
	return func(g *ReplyGenerator) {
		if maxTokens > 0 {
			g.maxTokens = maxTokens
		}
		g.temperature = temperature
	}
}

// WithReplyTimeout bounds one chat completion call
func WithReplyTimeout(d time.Duration) ReplyOption {
	return func(g *ReplyGenerator) {
		g.timeout = d
	}
}

// NewReplyGenerator creates a ReplyGenerator
func NewReplyGenerator(chat interfaces.ChatCompleter, opts ...ReplyOption) *ReplyGenerator {
	g := &ReplyGenerator{
		chat:        chat,
		persona:     DefaultPersona,
		maxTokens:   DefaultReplyMaxTokens,
		temperature: DefaultReplyTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate sends exactly two prompt turns: the persona with the memory
// context as system, and the raw utterance as user.
func (g *ReplyGenerator) Generate(ctx context.Context, utterance, contextText string) (string, error) {
	if g.chat == nil {
		return "", goerr.New("no chat model configured")
	}

	system, err := buildReplySystemPrompt(g.persona, contextText)
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reply, err := g.chat.ChatComplete(ctx, system, utterance, g.maxTokens, g.temperature)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate reply")
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", goerr.New("language model returned an empty reply")
	}
	return reply, nil
}
