package interfaces

import (
	"context"
)

// Transcriber converts one utterance of audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ChatCompleter obtains a single reply for a system/user prompt pair
type ChatCompleter interface {
	ChatComplete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float32) (string, error)
}

// SpeechSynthesizer renders text as playable audio
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Format is the container of the produced audio, such as "mp3"
	Format() string
}

// AudioTranscoder turns a raw capture into a stream the transcriber accepts
type AudioTranscoder interface {
	Transcode(ctx context.Context, audio []byte) ([]byte, error)
}
