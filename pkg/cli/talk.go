package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/secmon-lab/hippo/pkg/utils/async"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdTalk() *cli.Command {
	var sessionID string
	var audioPath string
	var text string
	var outputPath string
	var pipelineCfg pipelineConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID whose memory is used",
			Value:       string(model.DefaultSessionID),
			Sources:     cli.EnvVars("HIPPO_SESSION"),
			Destination: &sessionID,
		},
		&cli.StringFlag{
			Name:        "audio",
			Aliases:     []string{"a"},
			Usage:       "Recorded utterance to send",
			Destination: &audioPath,
		},
		&cli.StringFlag{
			Name:        "text",
			Aliases:     []string{"t"},
			Usage:       "Typed utterance to send instead of audio",
			Destination: &text,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "File to write the spoken reply to (default: reply.<format>)",
			Destination: &outputPath,
		},
	}
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "talk",
		Aliases: []string{"t"},
		Usage:   "Run one turn locally from an audio file or text",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if (audioPath == "") == (text == "") {
				return goerr.New("exactly one of --audio or --text is required")
			}

			uc, repo, err := pipelineCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer closeRepository(ctx, repo)

			sess, err := uc.Sessions.Get(ctx, model.SessionID(sessionID))
			if err != nil {
				return goerr.Wrap(err, "failed to start session")
			}

			var result *model.TurnResult
			if audioPath != "" {
				// #nosec G304 - path is expected to be provided by CLI argument
				audio, err := os.ReadFile(audioPath)
				if err != nil {
					return goerr.Wrap(err, "failed to read audio file", goerr.V("path", audioPath))
				}
				result, err = uc.Turn.SubmitUtteranceAudio(ctx, sess, audio)
				if err != nil {
					return err
				}
			} else {
				result, err = uc.Turn.SubmitUtteranceText(ctx, sess, text)
				if err != nil {
					return err
				}
			}

			printTurn(c.Root().Writer, result)

			// The turn log is archived in the background
			waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := async.Wait(waitCtx); err != nil {
				logging.From(ctx).Warn("turn log archive did not finish", "error", err)
			}

			if result.HasAudio() {
				path := outputPath
				if path == "" {
					path = "reply." + result.AudioFormat
				}
				if err := os.WriteFile(path, result.ReplyAudio, 0o600); err != nil {
					return goerr.Wrap(err, "failed to write reply audio", goerr.V("path", path))
				}
				logging.From(ctx).Info("Reply audio written", "path", path, "size", len(result.ReplyAudio))
			}

			return nil
		},
	}
}

func printTurn(w io.Writer, result *model.TurnResult) {
	if w == nil {
		w = os.Stdout
	}
	label := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)

	_, _ = label.Fprint(w, "You: ")
	_, _ = fmt.Fprintln(w, result.Transcript)

	if !result.ExtractedFacts.IsEmpty() {
		_, _ = label.Fprint(w, "Learned: ")
		_, _ = fmt.Fprintln(w, summarizeFacts(result.ExtractedFacts))
	}

	if result.HasReply() {
		_, _ = label.Fprint(w, "Coach: ")
		_, _ = fmt.Fprintln(w, result.ReplyText)
	}

	for _, e := range result.Errors {
		_, _ = warn.Fprintf(w, "[%s] %s\n", e.Stage, e.Message)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, usecase.RenderMemoryContext(result.UpdatedMemory))
}

func summarizeFacts(f *model.ExtractedFacts) string {
	var parts []string
	if f.Age != nil {
		parts = append(parts, fmt.Sprintf("age %d", *f.Age))
	}
	parts = append(parts, f.Goals...)
	parts = append(parts, f.Preferences...)
	parts = append(parts, f.Motivations...)
	parts = append(parts, f.Conditions...)
	return strings.Join(parts, ", ")
}
