package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/cli/config"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var path string

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the assistant profile file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "assistant-config",
				Aliases:     []string{"c"},
				Usage:       "Path to the assistant profile TOML file",
				Required:    true,
				Sources:     cli.EnvVars("HIPPO_ASSISTANT_CONFIG"),
				Destination: &path,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			profile, err := config.LoadAssistantProfile(path)
			if err != nil {
				return goerr.Wrap(err, "assistant profile validation failed")
			}

			timeouts, err := profile.ResolveTimeouts()
			if err != nil {
				return goerr.Wrap(err, "assistant profile validation failed")
			}

			logging.From(ctx).Info("Assistant profile validation passed",
				"path", path,
				"custom_persona", profile.Persona != "",
				"reply_max_tokens", profile.Reply.MaxTokens,
				"extract_max_tokens", profile.Extract.MaxTokens,
				"timeouts", timeouts,
			)
			return nil
		},
	}
}
