package config

import (
	"io"
	"log/slog"
)

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, openaiAPIKey, claudeAPIKey string, gemini *Gemini) *LLM {
	l := &LLM{
		provider:     provider,
		openaiAPIKey: openaiAPIKey,
		claudeAPIKey: claudeAPIKey,
	}
	if gemini != nil {
		l.gemini = *gemini
	}
	return l
}

// NewSpeechForTest creates a Speech config for testing purposes
func NewSpeechForTest(engine, elevenLabsAPIKey, ffmpegPath, uploadFormat string) *Speech {
	return &Speech{
		engine:           engine,
		elevenLabsAPIKey: elevenLabsAPIKey,
		elevenLabsVoice:  "voice",
		ffmpegPath:       ffmpegPath,
		uploadFormat:     uploadFormat,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, dataDir string) *Repository {
	return &Repository{
		backend: backend,
		dataDir: dataDir,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewLogHandler is exported for testing
func NewLogHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	return newLogHandler(w, format, level)
}

// NewAssistantForTest creates an Assistant config for testing purposes
func NewAssistantForTest(path string) *Assistant {
	return &Assistant{path: path}
}
