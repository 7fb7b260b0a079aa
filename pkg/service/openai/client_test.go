package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/service/openai"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, r.ParseMultipartForm(1<<20)).Required()
		gt.Value(t, r.FormValue("model")).Equal("whisper-1")
		gt.Value(t, r.FormValue("language")).Equal("en")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" I also want to sleep better, I'm 29 "}`))
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float32 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req)).Required()
		gt.Value(t, req.MaxTokens).Equal(100)
		gt.Array(t, req.Messages).Length(2).Required()
		gt.Value(t, req.Messages[0].Role).Equal("system")
		gt.Value(t, req.Messages[1].Content).Equal("hello")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there!"},"finish_reason":"stop"}]}`))
	})
	mux.HandleFunc("/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gt.String(t, string(body)).Contains("Hi there!")
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	client, err := openai.New("sk-test", srv.URL)
	gt.NoError(t, err).Required()
	ctx := context.Background()

	t.Run("Transcribe trims text", func(t *testing.T) {
		text, err := client.Transcribe(ctx, []byte("RIFF....WAVE"))
		gt.NoError(t, err).Required()
		gt.Value(t, text).Equal("I also want to sleep better, I'm 29")
	})

	t.Run("Transcribe rejects empty audio", func(t *testing.T) {
		_, err := client.Transcribe(ctx, nil)
		gt.Value(t, err).NotNil()
	})

	t.Run("ChatComplete sends system and user turns", func(t *testing.T) {
		reply, err := client.ChatComplete(ctx, "be nice", "hello", 100, 0.7)
		gt.NoError(t, err).Required()
		gt.Value(t, reply).Equal("Hi there!")
	})

	t.Run("Synthesize returns audio bytes", func(t *testing.T) {
		audio, err := client.Synthesize(ctx, "Hi there!")
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.HasPrefix(string(audio), "ID3")).True()
		gt.Value(t, client.Format()).Equal("mp3")
	})
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := openai.New("", "")
	gt.Value(t, err).NotNil()
}

func TestClient_WithRealAPI(t *testing.T) {
	apiKey := os.Getenv("TEST_OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_OPENAI_API_KEY not set")
	}

	client, err := openai.New(apiKey, "")
	gt.NoError(t, err).Required()

	reply, err := client.ChatComplete(context.Background(), "Reply with one word.", "Say hello", 10, 0.0)
	gt.NoError(t, err).Required()
	gt.String(t, reply).NotEqual("")
}
