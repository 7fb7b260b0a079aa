package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AssistantProfile is the TOML file describing how the coach talks
//
//	persona = "You are a friendly, helpful professional health coach."
//
//	[reply]
//	max_tokens = 100
//	temperature = 0.7
//
//	[extract]
//	max_tokens = 150
//	temperature = 0.5
//
//	[timeouts]
//	transcribe = "30s"
//	extract = "20s"
//	reply = "30s"
//	synthesize = "30s"
type AssistantProfile struct {
	Persona  string           `toml:"persona"`
	Reply    SamplingSettings `toml:"reply"`
	Extract  SamplingSettings `toml:"extract"`
	Timeouts TimeoutSettings  `toml:"timeouts"`
}

// SamplingSettings bounds one model call. Unset values keep the defaults.
type SamplingSettings struct {
	MaxTokens   int      `toml:"max_tokens"`
	Temperature *float32 `toml:"temperature"`
}

// TimeoutSettings holds one Go duration string per collaborator
type TimeoutSettings struct {
	Transcribe string `toml:"transcribe"`
	Extract    string `toml:"extract"`
	Reply      string `toml:"reply"`
	Synthesize string `toml:"synthesize"`
}

// Validate checks if the profile is valid
func (p *AssistantProfile) Validate() error {
	if err := p.Reply.validate("reply"); err != nil {
		return err
	}
	if err := p.Extract.validate("extract"); err != nil {
		return err
	}
	if _, err := p.ResolveTimeouts(); err != nil {
		return err
	}
	return nil
}

func (s SamplingSettings) validate(section string) error {
	if s.MaxTokens < 0 {
		return goerr.Wrap(ErrInvalidConfig, "max_tokens must not be negative", goerr.V(FieldKey, section+".max_tokens"))
	}
	if t := s.Temperature; t != nil && (*t < 0 || *t > 2) {
		return goerr.Wrap(ErrInvalidTemperature, "invalid temperature",
			goerr.V(FieldKey, section+".temperature"),
			goerr.V("temperature", *t))
	}
	return nil
}

func (s SamplingSettings) temperatureOr(def float32) float32 {
	if s.Temperature == nil {
		return def
	}
	return *s.Temperature
}

// ResolveTimeouts parses the configured timeouts over the defaults
func (p *AssistantProfile) ResolveTimeouts() (usecase.Timeouts, error) {
	result := usecase.DefaultTimeouts()
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeouts.transcribe", p.Timeouts.Transcribe, &result.Transcribe},
		{"timeouts.extract", p.Timeouts.Extract, &result.Extract},
		{"timeouts.reply", p.Timeouts.Reply, &result.Reply},
		{"timeouts.synthesize", p.Timeouts.Synthesize, &result.Synthesize},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil || d < 0 {
			return usecase.Timeouts{}, goerr.Wrap(ErrInvalidDuration, "invalid timeout",
				goerr.V(FieldKey, f.name),
				goerr.V("value", f.value))
		}
		*f.dst = d
	}
	return result, nil
}

// Options converts the profile into use case options
func (p *AssistantProfile) Options() ([]usecase.Option, error) {
	timeouts, err := p.ResolveTimeouts()
	if err != nil {
		return nil, err
	}

	return []usecase.Option{
		usecase.WithTimeouts(timeouts),
		usecase.WithReplyOptions(
			usecase.WithPersona(p.Persona),
			usecase.WithReplyLimits(p.Reply.MaxTokens, p.Reply.temperatureOr(usecase.DefaultReplyTemperature)),
		),
		usecase.WithExtractOptions(
			usecase.WithExtractLimits(p.Extract.MaxTokens, p.Extract.temperatureOr(usecase.DefaultExtractTemperature)),
		),
	}, nil
}

// LoadAssistantProfile loads the assistant profile from a TOML file
func LoadAssistantProfile(path string) (*AssistantProfile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "assistant profile not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var profile AssistantProfile
	if err := toml.Unmarshal(data, &profile); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config", goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := profile.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &profile, nil
}

// Assistant holds the CLI flag pointing at the assistant profile
type Assistant struct {
	path string
}

// Flags returns CLI flags for assistant configuration
func (a *Assistant) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "assistant-config",
			Aliases:     []string{"c"},
			Usage:       "Path to the assistant profile TOML file",
			Sources:     cli.EnvVars("HIPPO_ASSISTANT_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure returns the use case options of the profile, or the defaults
// when no profile is given
func (a *Assistant) Configure() ([]usecase.Option, error) {
	if a.path == "" {
		profile := &AssistantProfile{}
		return profile.Options()
	}

	profile, err := LoadAssistantProfile(a.path)
	if err != nil {
		return nil, err
	}
	return profile.Options()
}
