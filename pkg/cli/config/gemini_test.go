package config_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/cli/config"
)

func TestGemini_Configure(t *testing.T) {
	t.Run("project ID is required", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", config.DefaultGeminiLocation)
		client, err := cfg.Configure(t.Context())
		gt.Value(t, client).Nil()
		gt.Bool(t, errors.Is(err, config.ErrMissingCredential)).True()
	})

	t.Run("flags", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "")
		names := make([]string, 0)
		for _, f := range cfg.Flags() {
			names = append(names, f.Names()[0])
		}
		gt.Array(t, names).Has("gemini-project")
		gt.Array(t, names).Has("gemini-location")
	})

	t.Run("log value", func(t *testing.T) {
		cfg := config.NewGeminiForTest("my-project", "asia-northeast1")
		v := cfg.LogValue()
		gt.Value(t, v.Kind()).Equal(slog.KindGroup)
		gt.Value(t, len(v.Group())).Equal(2)
	})
}
