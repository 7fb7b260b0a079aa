package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/cli/config"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdMemory() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect stored user memory",
		Commands: []*cli.Command{
			cmdMemoryShow(),
			cmdMemoryLog(),
		},
	}
}

func cmdMemoryShow() *cli.Command {
	var sessionID string
	var markdown bool
	var repoCfg config.Repository

	flags := []cli.Flag{
		sessionFlag(&sessionID),
		&cli.BoolFlag{
			Name:        "markdown",
			Usage:       "Print the stored memories view instead of the prompt context",
			Destination: &markdown,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "show",
		Usage: "Print the memory of a session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repo, err := storageOnlyUseCases(ctx, &repoCfg)
			if err != nil {
				return err
			}
			defer closeRepository(ctx, repo)

			view, err := uc.ShowMemory(ctx, model.SessionID(sessionID))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}
			if markdown {
				_, _ = fmt.Fprintln(w, view.Markdown)
			} else {
				_, _ = fmt.Fprintln(w, view.Context)
			}
			return nil
		},
	}
}

func cmdMemoryLog() *cli.Command {
	var sessionID string
	var limit int
	var repoCfg config.Repository

	flags := []cli.Flag{
		sessionFlag(&sessionID),
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Number of recent turns to print (0 for all)",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "log",
		Usage: "Print archived turns of a session, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repo, err := storageOnlyUseCases(ctx, &repoCfg)
			if err != nil {
				return err
			}
			defer closeRepository(ctx, repo)

			records, err := uc.TurnLog(ctx, model.SessionID(sessionID), limit)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}
			ts := color.New(color.FgHiBlack)
			warn := color.New(color.FgYellow)
			for _, r := range records {
				_, _ = ts.Fprintf(w, "%s ", r.CreatedAt.Format("2006-01-02 15:04:05"))
				_, _ = fmt.Fprintf(w, "%s\n  -> %s\n", r.Transcript, r.ReplyText)
				if !r.Persisted {
					_, _ = warn.Fprintln(w, "  (memory not persisted)")
				}
				for _, e := range r.Errors {
					_, _ = warn.Fprintf(w, "  [%s] %s\n", e.Stage, e.Message)
				}
			}
			return nil
		},
	}
}

func sessionFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "session",
		Aliases:     []string{"s"},
		Usage:       "Session ID",
		Value:       string(model.DefaultSessionID),
		Sources:     cli.EnvVars("HIPPO_SESSION"),
		Destination: dst,
	}
}

// storageOnlyUseCases builds use cases for commands that only read storage
func storageOnlyUseCases(ctx context.Context, repoCfg *config.Repository) (*usecase.UseCases, interfaces.Repository, error) {
	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	return usecase.New(repo, nil, nil), repo, nil
}
