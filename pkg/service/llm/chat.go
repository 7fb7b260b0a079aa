package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
)

// ChatCompleter adapts a gollem LLM client to the two-message chat
// completion contract used by the reply generator. Max tokens and
// temperature are sent with every Generate call.
type ChatCompleter struct {
	llmClient gollem.LLMClient
}

var _ interfaces.ChatCompleter = &ChatCompleter{}

// New creates a ChatCompleter backed by the given LLM client
func New(llmClient gollem.LLMClient) (*ChatCompleter, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &ChatCompleter{llmClient: llmClient}, nil
}

// ChatComplete sends system and user prompts in a fresh session. A
// non-positive maxTokens leaves the provider default in place.
func (c *ChatCompleter) ChatComplete(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error) {
	session, err := c.llmClient.NewSession(ctx, gollem.WithSessionSystemPrompt(system))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	opts := []gollem.GenerateOption{
		gollem.WithTemperature(float64(temperature)),
	}
	if maxTokens > 0 {
		opts = append(opts, gollem.WithMaxTokens(maxTokens))
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(user)}, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM",
			goerr.V("max_tokens", maxTokens),
			goerr.V("temperature", temperature))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("LLM returned no text")
	}

	reply := strings.TrimSpace(strings.Join(resp.Texts, ""))
	if reply == "" {
		return "", goerr.New("LLM returned empty text")
	}
	return reply, nil
}
