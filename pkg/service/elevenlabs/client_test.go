package elevenlabs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/service/elevenlabs"
)

func TestClient_Synthesize(t *testing.T) {
	t.Run("posts text with voice settings", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.URL.Path).Equal("/text-to-speech/voice-1")
			gt.Value(t, r.Header.Get("xi-api-key")).Equal("key")

			var body map[string]any
			gt.NoError(t, json.NewDecoder(r.Body).Decode(&body)).Required()
			gt.Value(t, body["text"]).Equal("Great job today!")
			settings := body["voice_settings"].(map[string]any)
			gt.Value(t, settings["stability"]).Equal(0.8)
			gt.Value(t, settings["similarity_boost"]).Equal(1.0)

			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("mp3-bytes"))
		}))
		defer srv.Close()

		client, err := elevenlabs.New("key",
			elevenlabs.WithBaseURL(srv.URL),
			elevenlabs.WithVoiceID("voice-1"),
		)
		gt.NoError(t, err).Required()

		audio, err := client.Synthesize(context.Background(), "Great job today!")
		gt.NoError(t, err).Required()
		gt.Value(t, string(audio)).Equal("mp3-bytes")
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"quota exceeded"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		client, err := elevenlabs.New("key", elevenlabs.WithBaseURL(srv.URL))
		gt.NoError(t, err).Required()

		_, err = client.Synthesize(context.Background(), "hello")
		gt.Value(t, err).NotNil()
	})
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := elevenlabs.New("")
	gt.Value(t, err).NotNil()
}
