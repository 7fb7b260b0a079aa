package openai

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/utils/safe"
)

const (
	// DefaultChatModel is used for reply generation
	DefaultChatModel = openai.GPT4oMini
	// DefaultTranscriptionModel is the Whisper model
	DefaultTranscriptionModel = openai.Whisper1
	// DefaultSpeechModel is the text-to-speech model
	DefaultSpeechModel = openai.TTSModel1
	// DefaultVoice is the text-to-speech voice
	DefaultVoice = openai.VoiceAlloy
	// DefaultLanguage is the transcription language; only English is supported
	DefaultLanguage = "en"
	// DefaultAudioFileName tells the API which container the upload uses
	DefaultAudioFileName = "user_input.wav"
)

// Client talks to the OpenAI API for transcription, chat completion and
// speech synthesis.
type Client struct {
	api                *openai.Client
	chatModel          string
	transcriptionModel string
	speechModel        openai.SpeechModel
	voice              openai.SpeechVoice
	audioFileName      string
}

var (
	_ interfaces.Transcriber       = &Client{}
	_ interfaces.ChatCompleter     = &Client{}
	_ interfaces.SpeechSynthesizer = &Client{}
)

// Option is a functional option for client configuration
type Option func(*Client)

// WithChatModel sets the model used by ChatComplete
func WithChatModel(model string) Option {
	return func(c *Client) {
		c.chatModel = model
	}
}

// WithTranscriptionModel sets the Whisper model
func WithTranscriptionModel(model string) Option {
	return func(c *Client) {
		c.transcriptionModel = model
	}
}

// WithSpeechModel sets the text-to-speech model
func WithSpeechModel(model string) Option {
	return func(c *Client) {
		c.speechModel = openai.SpeechModel(model)
	}
}

// WithVoice sets the text-to-speech voice
func WithVoice(voice string) Option {
	return func(c *Client) {
		c.voice = openai.SpeechVoice(voice)
	}
}

// WithAudioFileName sets the file name reported with uploaded audio. The
// extension selects the decoder on the server side.
func WithAudioFileName(name string) Option {
	return func(c *Client) {
		c.audioFileName = name
	}
}

// New creates a new OpenAI client. baseURL may be empty.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("OpenAI API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	c := &Client{
		api:                openai.NewClientWithConfig(cfg),
		chatModel:          DefaultChatModel,
		transcriptionModel: DefaultTranscriptionModel,
		speechModel:        DefaultSpeechModel,
		voice:              DefaultVoice,
		audioFileName:      DefaultAudioFileName,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Transcribe sends audio to Whisper and returns the recognized text
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", goerr.New("audio is empty")
	}

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcriptionModel,
		FilePath: c.audioFileName,
		Reader:   bytes.NewReader(audio),
		Language: DefaultLanguage,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to transcribe audio",
			goerr.V("model", c.transcriptionModel),
			goerr.V("bytes", len(audio)))
	}

	return strings.TrimSpace(resp.Text), nil
}

// ChatComplete sends one system and one user message
func (c *Client) ChatComplete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create chat completion", goerr.V("model", c.chatModel))
	}

	if len(resp.Choices) == 0 {
		return "", goerr.New("chat completion returned no choices", goerr.V("model", c.chatModel))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Synthesize converts text to MP3 audio
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          c.speechModel,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to synthesize speech", goerr.V("voice", c.voice))
	}
	defer safe.Close(ctx, resp)

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read synthesized speech")
	}
	if len(audio) == 0 {
		return nil, goerr.New("synthesized speech is empty")
	}

	return audio, nil
}

// Format returns the container of synthesized audio
func (c *Client) Format() string {
	return "mp3"
}
