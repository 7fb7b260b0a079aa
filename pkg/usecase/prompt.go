package usecase

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/extract_system.md
var extractSystemPrompt string

//go:embed prompt/reply_system.md
var replySystemPromptTmpl string

var replySystemPrompt = template.Must(template.New("reply_system").Parse(replySystemPromptTmpl))

// DefaultPersona is the fixed persona of the reply generator
const DefaultPersona = "You are a friendly, helpful professional coach. Keep replies short and avoid lists."

type replyPromptData struct {
	Persona string
	Context string
}

func buildReplySystemPrompt(persona, contextText string) (string, error) {
	var buf bytes.Buffer
	if err := replySystemPrompt.Execute(&buf, replyPromptData{
		Persona: persona,
		Context: contextText,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render reply system prompt")
	}
	return buf.String(), nil
}
