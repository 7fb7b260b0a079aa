package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/cli/config"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/secmon-lab/hippo/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

// pipelineConfig groups the configuration shared by commands that run turns
type pipelineConfig struct {
	repo      config.Repository
	llm       config.LLM
	speech    config.Speech
	assistant config.Assistant
}

func (p *pipelineConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, p.assistant.Flags()...)
	flags = append(flags, p.repo.Flags()...)
	flags = append(flags, p.llm.Flags()...)
	flags = append(flags, p.speech.Flags()...)
	return flags
}

// build wires the repository, model clients and speech engine into use
// cases. The caller must close the returned repository.
func (p *pipelineConfig) build(ctx context.Context, recorder *metrics.Recorder) (*usecase.UseCases, interfaces.Repository, error) {
	logger := logging.From(ctx)

	ucOpts, err := p.assistant.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load assistant profile")
	}

	clients, err := p.llm.Configure(ctx, p.speech.AudioFileName(), p.speech.OpenAIOptions()...)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure language models")
	}

	synth, err := p.speech.Configure(clients.OpenAI)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure speech synthesis")
	}

	repo, err := p.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	ucOpts = append(ucOpts,
		usecase.WithExtractor(clients.Extractor),
		usecase.WithMetrics(recorder),
	)
	if synth != nil {
		ucOpts = append(ucOpts, usecase.WithSynthesizer(synth))
	}
	if t := p.speech.Transcoder(); t != nil {
		ucOpts = append(ucOpts, usecase.WithTranscoder(t))
	}

	logger.Info("Pipeline configured",
		"llm", p.llm,
		"speech", p.speech,
		"repository", p.repo,
	)

	return usecase.New(repo, clients.Transcriber, clients.Chat, ucOpts...), repo, nil
}

func closeRepository(ctx context.Context, repo interfaces.Repository) {
	if err := repo.Close(); err != nil {
		logging.From(ctx).Error("failed to close repository", "error", err.Error())
	}
}
