package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
)

// DefaultGeminiLocation is the Vertex AI region used when none is set
const DefaultGeminiLocation = "us-central1"

// Gemini selects the Vertex AI project serving Gemini for the gemini
// provider. Credentials come from Application Default Credentials.
type Gemini struct {
	projectID string
	location  string
}

func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID serving Gemini (gemini provider)",
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Vertex AI location of Gemini",
			Value:       DefaultGeminiLocation,
			Category:    "LLM",
			Sources:     cli.EnvVars("HIPPO_GEMINI_LOCATION"),
			Destination: &g.location,
		},
	}
}

// LogValue implements slog.LogValuer
func (g Gemini) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
	)
}

// Configure creates the Gemini client used for both fact extraction and
// replies
func (g *Gemini) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if g.projectID == "" {
		return nil, goerr.Wrap(ErrMissingCredential, "gemini-project is required for gemini provider", goerr.V(FieldKey, "gemini-project"))
	}

	location := g.location
	if location == "" {
		location = DefaultGeminiLocation
	}

	client, err := gemini.New(ctx, g.projectID, location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("project_id", g.projectID),
			goerr.V("location", location))
	}
	return client, nil
}
