package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
)

// Transcoder converts a raw browser capture (typically WebM/Opus) into
// 16-bit PCM WAV by piping it through an ffmpeg subprocess.
type Transcoder struct {
	binary     string
	sampleRate int
	channels   int
}

var _ interfaces.AudioTranscoder = &Transcoder{}

// Option configures Transcoder
type Option func(*Transcoder)

// WithBinary sets the ffmpeg executable path
func WithBinary(path string) Option {
	return func(t *Transcoder) {
		t.binary = path
	}
}

// WithSampleRate sets the output sample rate in Hz
func WithSampleRate(rate int) Option {
	return func(t *Transcoder) {
		t.sampleRate = rate
	}
}

// WithChannels sets the number of output channels
func WithChannels(n int) Option {
	return func(t *Transcoder) {
		t.channels = n
	}
}

// New creates a Transcoder. The binary is resolved lazily on first use.
func New(opts ...Option) *Transcoder {
	t := &Transcoder{
		binary:     "ffmpeg",
		sampleRate: 16000,
		channels:   1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transcoder) args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-ac", strconv.Itoa(t.channels),
		"-ar", strconv.Itoa(t.sampleRate),
		"-f", "wav",
		"pipe:1",
	}
}

// Transcode runs ffmpeg with the audio on stdin and returns the WAV output.
func (t *Transcoder) Transcode(ctx context.Context, audio []byte) ([]byte, error) {
	if len(audio) == 0 {
		return nil, goerr.New("no audio to transcode")
	}

	path, err := exec.LookPath(t.binary)
	if err != nil {
		return nil, goerr.Wrap(err, "ffmpeg binary not found", goerr.V("binary", t.binary))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, t.args()...)
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, goerr.Wrap(err, "ffmpeg failed",
			goerr.V("stderr", strings.TrimSpace(stderr.String())),
			goerr.V("input_size", len(audio)))
	}
	if stdout.Len() == 0 {
		return nil, goerr.New("ffmpeg produced no output", goerr.V("stderr", strings.TrimSpace(stderr.String())))
	}

	return stdout.Bytes(), nil
}

// Passthrough is an AudioTranscoder that returns the input unchanged.
type Passthrough struct{}

var _ interfaces.AudioTranscoder = Passthrough{}

func (Passthrough) Transcode(_ context.Context, audio []byte) ([]byte, error) {
	return audio, nil
}
