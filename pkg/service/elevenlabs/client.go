package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/utils/safe"
)

const (
	// DefaultBaseURL is the ElevenLabs API endpoint
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	// DefaultVoiceID is the voice used when none is configured
	DefaultVoiceID = "mbL34QDB5FptPamlgvX5"
	// DefaultStability and DefaultSimilarityBoost are the voice settings
	DefaultStability       = 0.8
	DefaultSimilarityBoost = 1.0

	maxErrorBody = 512
)

// Client synthesizes speech with the ElevenLabs text-to-speech API
type Client struct {
	apiKey          string
	baseURL         string
	voiceID         string
	stability       float64
	similarityBoost float64
	httpClient      *http.Client
}

var _ interfaces.SpeechSynthesizer = &Client{}

// Option is a functional option for client configuration
type Option func(*Client)

// WithVoiceID sets the voice
func WithVoiceID(id string) Option {
	return func(c *Client) {
		c.voiceID = id
	}
}

// WithBaseURL overrides the API endpoint
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithVoiceSettings overrides stability and similarity boost
func WithVoiceSettings(stability, similarityBoost float64) Option {
	return func(c *Client) {
		c.stability = stability
		c.similarityBoost = similarityBoost
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new ElevenLabs client
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("ElevenLabs API key is required")
	}

	c := &Client{
		apiKey:          apiKey,
		baseURL:         DefaultBaseURL,
		voiceID:         DefaultVoiceID,
		stability:       DefaultStability,
		similarityBoost: DefaultSimilarityBoost,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize converts text to MP3 audio
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(speechRequest{
		Text: text,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarityBoost,
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal speech request")
	}

	endpoint := c.baseURL + "/text-to-speech/" + url.PathEscape(c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create speech request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call text-to-speech API", goerr.V("voice_id", c.voiceID))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, goerr.New("text-to-speech API returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(detail)),
			goerr.V("voice_id", c.voiceID))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read synthesized speech")
	}
	return audio, nil
}

// Format returns the container of synthesized audio
func (c *Client) Format() string {
	return "mp3"
}
