package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/utils/lenient"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
)

// Fact extraction defaults
const (
	DefaultExtractMaxTokens   = 150
	DefaultExtractTemperature = 0.5
)

// FactExtractor asks a language model for the durable facts stated in one
// utterance. It never fails: any problem yields empty facts.
type FactExtractor struct {
	llmClient   gollem.LLMClient
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

// ExtractOption configures FactExtractor
type ExtractOption func(*FactExtractor)

// WithExtractLimits sets max tokens and temperature of the extraction call
func WithExtractLimits(maxTokens int, temperature float32) ExtractOption {
	return func(x *FactExtractor) {
		if maxTokens > 0 {
			x.maxTokens = maxTokens
		}
		x.temperature = temperature
	}
}

// NewFactExtractor creates a FactExtractor. A nil client disables
// extraction and every call returns empty facts.
func NewFactExtractor(llmClient gollem.LLMClient, timeout time.Duration, opts ...ExtractOption) *FactExtractor {
	x := &FactExtractor{
		llmClient:   llmClient,
		timeout:     timeout,
		maxTokens:   DefaultExtractMaxTokens,
		temperature: DefaultExtractTemperature,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns the facts observed in the utterance
func (x *FactExtractor) Extract(ctx context.Context, utterance string) *model.ExtractedFacts {
	facts, err := x.extract(ctx, utterance)
	if err != nil {
		logging.From(ctx).Warn("fact extraction failed, continuing without new facts",
			"error", err,
			"utterance_length", len(utterance),
		)
		return model.NewEmptyFacts()
	}
	return facts
}

func (x *FactExtractor) extract(ctx context.Context, utterance string) (*model.ExtractedFacts, error) {
	if x.llmClient == nil {
		return model.NewEmptyFacts(), nil
	}
	if strings.TrimSpace(utterance) == "" {
		return model.NewEmptyFacts(), nil
	}

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	session, err := x.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(factsSchema()),
		gollem.WithSessionSystemPrompt(extractSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(utterance)},
		gollem.WithMaxTokens(x.maxTokens),
		gollem.WithTemperature(float64(x.temperature)),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM",
			goerr.V("max_tokens", x.maxTokens),
			goerr.V("temperature", x.temperature))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.New("LLM returned no text")
	}

	return decodeFacts(resp.Texts[0])
}

func factsSchema() *gollem.Parameter {
	list := func(desc string) *gollem.Parameter {
		return &gollem.Parameter{
			Type:        gollem.TypeArray,
			Description: desc,
			Items:       &gollem.Parameter{Type: gollem.TypeString},
		}
	}

	return &gollem.Parameter{
		Title:       "ExtractedFacts",
		Description: "Facts about the user stated in one message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"age": {
				Type:        gollem.TypeInteger,
				Description: "Age of the user in years, null if not stated",
			},
			"goals":       list("Goals the user wants to achieve"),
			"preferences": list("Things the user likes, dislikes or prefers"),
			"motivations": list("Reasons the user gives for wanting to change"),
			"conditions":  list("Health conditions, injuries or limitations"),
		},
	}
}

// decodeFacts validates model output field by field. Only a reply that is
// not a JSON object is an error; ill-typed fields are dropped.
func decodeFacts(text string) (*model.ExtractedFacts, error) {
	text = stripCodeFence(text)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, goerr.Wrap(err, "LLM reply is not a JSON object", goerr.V("response", text))
	}

	facts := &model.ExtractedFacts{
		Age:         lenient.Age(raw["age"]),
		Goals:       lenient.StringList(raw["goals"]),
		Preferences: lenient.StringList(raw["preferences"]),
		Motivations: lenient.StringList(raw["motivations"]),
		Conditions:  lenient.StringList(raw["conditions"]),
	}
	if legacy, ok := raw["health_conditions"]; ok {
		facts.Conditions = append(facts.Conditions, lenient.StringList(legacy)...)
	}

	return facts, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
