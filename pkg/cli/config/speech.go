package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/service/elevenlabs"
	"github.com/secmon-lab/hippo/pkg/service/ffmpeg"
	"github.com/secmon-lab/hippo/pkg/service/openai"
	"github.com/urfave/cli/v3"
)

// Speech engines
const (
	SpeechEngineOpenAI     = "openai"
	SpeechEngineElevenLabs = "elevenlabs"
	SpeechEngineNone       = "none"
)

// Speech holds CLI flags for speech synthesis and audio transcoding
type Speech struct {
	engine           string
	openaiVoice      string
	elevenLabsAPIKey string
	elevenLabsVoice  string
	ffmpegPath       string
	uploadFormat     string
}

// Flags returns CLI flags for speech configuration
func (s *Speech) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "speech-engine",
			Usage:       "Text-to-speech engine (openai, elevenlabs, none)",
			Value:       SpeechEngineOpenAI,
			Category:    "Speech",
			Sources:     cli.EnvVars("HIPPO_SPEECH_ENGINE"),
			Destination: &s.engine,
		},
		&cli.StringFlag{
			Name:        "openai-voice",
			Usage:       "OpenAI text-to-speech voice",
			Value:       string(openai.DefaultVoice),
			Category:    "Speech",
			Sources:     cli.EnvVars("HIPPO_OPENAI_VOICE"),
			Destination: &s.openaiVoice,
		},
		&cli.StringFlag{
			Name:        "elevenlabs-api-key",
			Usage:       "ElevenLabs API key (required for elevenlabs engine)",
			Category:    "Speech",
			Sources:     cli.EnvVars("HIPPO_ELEVENLABS_API_KEY", "ELEVENLABS_API_KEY"),
			Destination: &s.elevenLabsAPIKey,
		},
		&cli.StringFlag{
			Name:        "elevenlabs-voice-id",
			Usage:       "ElevenLabs voice ID",
			Value:       elevenlabs.DefaultVoiceID,
			Category:    "Speech",
			Sources:     cli.EnvVars("HIPPO_ELEVENLABS_VOICE_ID"),
			Destination: &s.elevenLabsVoice,
		},
		&cli.StringFlag{
			Name:        "ffmpeg",
			Usage:       "Path to ffmpeg used to convert uploads to WAV; uploads are passed through when empty",
			Category:    "Speech",
			Sources:     cli.EnvVars("HIPPO_FFMPEG"),
			Destination: &s.ffmpegPath,
		},
		&cli.StringFlag{
			Name:        "upload-format",
			Usage:       "Container of uploaded audio when ffmpeg is not used (webm, wav, mp3, m4a, ogg)",
			Value:       "webm",
			Category:    "Speech",
			Sources:     cli.EnvVars("HIPPO_UPLOAD_FORMAT"),
			Destination: &s.uploadFormat,
		},
	}
}

type speechLogView struct {
	Engine           string
	ElevenLabsAPIKey string `masq:"secret"`
	ElevenLabsVoice  string
	FFmpeg           string
	UploadFormat     string
}

// LogValue implements slog.LogValuer
func (s Speech) LogValue() slog.Value {
	return slog.AnyValue(speechLogView{
		Engine:           s.engine,
		ElevenLabsAPIKey: s.elevenLabsAPIKey,
		ElevenLabsVoice:  s.elevenLabsVoice,
		FFmpeg:           s.ffmpegPath,
		UploadFormat:     s.uploadFormat,
	})
}

// AudioFileName is the name reported to the transcriber for an upload
func (s *Speech) AudioFileName() string {
	if s.ffmpegPath != "" {
		return "user_input.wav"
	}
	format := s.uploadFormat
	if format == "" {
		format = "webm"
	}
	return "user_input." + format
}

// OpenAIOptions returns the options the OpenAI client needs for speech
func (s *Speech) OpenAIOptions() []openai.Option {
	if s.openaiVoice == "" {
		return nil
	}
	return []openai.Option{openai.WithVoice(s.openaiVoice)}
}

// Transcoder returns the ffmpeg transcoder, or nil when uploads are passed
// through unchanged
func (s *Speech) Transcoder() interfaces.AudioTranscoder {
	if s.ffmpegPath == "" {
		return nil
	}
	return ffmpeg.New(ffmpeg.WithBinary(s.ffmpegPath))
}

// Configure returns the speech synthesizer, or nil for the none engine
func (s *Speech) Configure(oa *openai.Client) (interfaces.SpeechSynthesizer, error) {
	switch s.engine {
	case SpeechEngineOpenAI, "":
		if oa == nil {
			return nil, goerr.Wrap(ErrMissingCredential, "OpenAI client is required for openai speech engine")
		}
		return oa, nil

	case SpeechEngineElevenLabs:
		if s.elevenLabsAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "elevenlabs-api-key is required for elevenlabs engine", goerr.V(FieldKey, "elevenlabs-api-key"))
		}
		client, err := elevenlabs.New(s.elevenLabsAPIKey, elevenlabs.WithVoiceID(s.elevenLabsVoice))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create ElevenLabs client")
		}
		return client, nil

	case SpeechEngineNone:
		return nil, nil

	default:
		return nil, goerr.Wrap(ErrUnknownProvider, "invalid speech-engine", goerr.V(ProviderKey, s.engine))
	}
}
