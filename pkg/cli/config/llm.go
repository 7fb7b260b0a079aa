package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	gollemopenai "github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/service/llm"
	"github.com/secmon-lab/hippo/pkg/service/openai"
	"github.com/urfave/cli/v3"
)

// LLM providers for fact extraction and reply generation
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// LLM holds CLI flags for the language and speech-to-text models.
// Transcription always uses OpenAI Whisper; the provider selects the model
// family used for extraction and replies.
type LLM struct {
	provider           string
	openaiAPIKey       string
	openaiBaseURL      string
	chatModel          string
	transcriptionModel string
	claudeAPIKey       string
	gemini             Gemini
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider for extraction and replies (openai, gemini, claude)",
			Value:       ProviderOpenAI,
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key (required for transcription)",
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Usage:       "OpenAI compatible API endpoint",
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_OPENAI_BASE_URL"),
			Destination: &l.openaiBaseURL,
		},
		&cli.StringFlag{
			Name:        "openai-chat-model",
			Usage:       "OpenAI chat model for replies",
			Value:       openai.DefaultChatModel,
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_OPENAI_CHAT_MODEL"),
			Destination: &l.chatModel,
		},
		&cli.StringFlag{
			Name:        "openai-transcription-model",
			Usage:       "OpenAI speech-to-text model",
			Value:       openai.DefaultTranscriptionModel,
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_OPENAI_TRANSCRIPTION_MODEL"),
			Destination: &l.transcriptionModel,
		},
		&cli.StringFlag{
			Name:        "claude-api-key",
			Usage:       "Anthropic API key (required for claude provider)",
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"),
			Destination: &l.claudeAPIKey,
		},
	}
	return append(flags, l.gemini.Flags()...)
}

type llmLogView struct {
	Provider      string
	OpenAIAPIKey  string `masq:"secret"`
	ChatModel     string
	ClaudeAPIKey  string `masq:"secret"`
	GeminiProject string
}

// LogValue implements slog.LogValuer. API keys are redacted by the log
// handler.
func (l LLM) LogValue() slog.Value {
	return slog.AnyValue(llmLogView{
		Provider:      l.provider,
		OpenAIAPIKey:  l.openaiAPIKey,
		ChatModel:     l.chatModel,
		ClaudeAPIKey:  l.claudeAPIKey,
		GeminiProject: l.gemini.projectID,
	})
}

// Clients are the model clients used by the turn pipeline
type Clients struct {
	// OpenAI serves transcription and, for the openai provider, replies
	OpenAI      *openai.Client
	Transcriber interfaces.Transcriber
	Chat        interfaces.ChatCompleter
	Extractor   gollem.LLMClient
}

// Configure creates the model clients. audioFileName tells Whisper which
// container the uploaded audio uses.
func (l *LLM) Configure(ctx context.Context, audioFileName string, opts ...openai.Option) (*Clients, error) {
	if l.openaiAPIKey == "" {
		return nil, goerr.Wrap(ErrMissingCredential, "openai-api-key is required for transcription", goerr.V(FieldKey, "openai-api-key"))
	}

	opts = append([]openai.Option{
		openai.WithChatModel(l.chatModel),
		openai.WithTranscriptionModel(l.transcriptionModel),
		openai.WithAudioFileName(audioFileName),
	}, opts...)
	oa, err := openai.New(l.openaiAPIKey, l.openaiBaseURL, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OpenAI client")
	}

	clients := &Clients{
		OpenAI:      oa,
		Transcriber: oa,
	}

	switch l.provider {
	case ProviderOpenAI, "":
		extractor, err := gollemopenai.New(ctx, l.openaiAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI LLM client")
		}
		clients.Chat = oa
		clients.Extractor = extractor

	case ProviderGemini:
		client, err := l.gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if clients.Chat, err = llm.New(client); err != nil {
			return nil, err
		}
		clients.Extractor = client

	case ProviderClaude:
		if l.claudeAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "claude-api-key is required for claude provider", goerr.V(FieldKey, "claude-api-key"))
		}
		client, err := claude.New(ctx, l.claudeAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Claude client")
		}
		if clients.Chat, err = llm.New(client); err != nil {
			return nil, err
		}
		clients.Extractor = client

	default:
		return nil, goerr.Wrap(ErrUnknownProvider, "invalid llm-provider", goerr.V(ProviderKey, l.provider))
	}

	return clients, nil
}
