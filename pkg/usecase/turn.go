package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hippo/pkg/domain/interfaces"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
	"github.com/secmon-lab/hippo/pkg/utils/async"
	"github.com/secmon-lab/hippo/pkg/utils/errutil"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/secmon-lab/hippo/pkg/utils/metrics"
)

// Messages shown to the user when a stage degrades
const (
	msgSaveFailed       = "Your latest details could not be saved. They are kept for this conversation and will be saved again on the next turn."
	msgReplyFailed      = "I could not come up with a reply this time. Please try again."
	msgSynthesisFailed  = "The reply could not be turned into speech."
	MsgTranscribeFailed = "I could not understand the recording. Please try again."
)

// TurnUseCase runs the turn pipeline:
//
//	transcribe -> extract facts -> merge and save -> reply -> synthesize
//
// Only a transcription failure aborts a turn. Every later failure is
// recorded in the result and the remaining stages still run.
type TurnUseCase struct {
	transcoder  interfaces.AudioTranscoder
	transcriber interfaces.Transcriber
	extractor   *FactExtractor
	store       *MemoryStore
	reply       *ReplyGenerator
	synthesizer interfaces.SpeechSynthesizer
	turnLog     interfaces.TurnLogRepository
	metrics     *metrics.Recorder

	transcribeTimeout time.Duration
	synthesizeTimeout time.Duration
	now               func() time.Time
}

// SubmitUtteranceAudio runs one full turn for a recorded utterance. When
// transcription fails the session is left untouched and an error wrapping
// ErrTranscription is returned with no result.
func (uc *TurnUseCase) SubmitUtteranceAudio(ctx context.Context, sess *Session, audio []byte) (*model.TurnResult, error) {
	sess.turn.Lock()
	defer sess.turn.Unlock()

	result := uc.newResult(sess)
	ctx = logging.With(ctx, logging.From(ctx).With(
		SessionIDKey, sess.ID(),
		TurnIDKey, result.TurnID,
	))

	uc.begin(ctx, sess)
	sess.transition(ctx, types.TurnStageTranscribing)

	started := uc.now()
	transcript, err := uc.transcribe(ctx, audio)
	uc.metrics.ObserveStage(types.TurnStageTranscribing.String(), uc.now().Sub(started))
	if err != nil {
		sess.transition(ctx, types.TurnStageErrored)
		uc.metrics.StageFailure(types.TurnStageTranscribing.String())
		uc.metrics.Turn(metrics.OutcomeErrored)
		logging.From(ctx).Warn("transcription failed, turn aborted", "error", err)
		return nil, goerr.Wrap(errors.Join(ErrTranscription, err), MsgTranscribeFailed,
			goerr.V(SessionIDKey, sess.ID()),
			goerr.V(TurnIDKey, result.TurnID),
			goerr.V(StageKey, types.TurnStageTranscribing))
	}

	return uc.run(ctx, sess, result, transcript), nil
}

// SubmitUtteranceText runs a turn for an utterance that is already text.
// The transcription stage is passed through without a collaborator call.
func (uc *TurnUseCase) SubmitUtteranceText(ctx context.Context, sess *Session, text string) (*model.TurnResult, error) {
	transcript := strings.TrimSpace(text)
	if transcript == "" {
		return nil, goerr.Wrap(errors.Join(ErrTranscription, ErrEmptyTranscript), MsgTranscribeFailed,
			goerr.V(SessionIDKey, sess.ID()))
	}

	sess.turn.Lock()
	defer sess.turn.Unlock()

	result := uc.newResult(sess)
	ctx = logging.With(ctx, logging.From(ctx).With(
		SessionIDKey, sess.ID(),
		TurnIDKey, result.TurnID,
	))

	uc.begin(ctx, sess)
	sess.transition(ctx, types.TurnStageTranscribing)
	return uc.run(ctx, sess, result, transcript), nil
}

func (uc *TurnUseCase) newResult(sess *Session) *model.TurnResult {
	return &model.TurnResult{
		TurnID:    model.NewTurnID(),
		SessionID: sess.ID(),
		StartedAt: uc.now(),
	}
}

// begin clears the Errored stage left by a previous aborted turn
func (uc *TurnUseCase) begin(ctx context.Context, sess *Session) {
	sess.touch(uc.now())
	if sess.Stage() == types.TurnStageErrored {
		sess.transition(ctx, types.TurnStageIdle)
	}
}

func (uc *TurnUseCase) transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", goerr.Wrap(ErrNoAudio, "utterance has no audio")
	}
	if uc.transcriber == nil {
		return "", goerr.New("no transcriber configured")
	}

	if uc.transcribeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.transcribeTimeout)
		defer cancel()
	}

	if uc.transcoder != nil {
		converted, err := uc.transcoder.Transcode(ctx, audio)
		if err != nil {
			return "", goerr.Wrap(err, "failed to transcode audio", goerr.V("audio_size", len(audio)))
		}
		audio = converted
	}

	text, err := uc.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", goerr.Wrap(err, "failed to transcribe audio", goerr.V("audio_size", len(audio)))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", goerr.Wrap(ErrEmptyTranscript, "transcriber returned no text")
	}
	return text, nil
}

// run executes the stages after transcription. It always returns a
// well-formed result.
func (uc *TurnUseCase) run(ctx context.Context, sess *Session, result *model.TurnResult, transcript string) *model.TurnResult {
	logger := logging.From(ctx)
	result.Transcript = transcript

	// Extracting never fails the turn
	sess.transition(ctx, types.TurnStageExtracting)
	started := uc.now()
	result.ExtractedFacts = uc.extractor.Extract(ctx, transcript)
	uc.metrics.ObserveStage(types.TurnStageExtracting.String(), uc.now().Sub(started))

	// Merging is the durability point of the turn
	sess.transition(ctx, types.TurnStageMerging)
	started = uc.now()
	merged := sess.currentMemory().Merge(result.ExtractedFacts)
	sess.setMemory(merged)
	result.UpdatedMemory = merged.Clone()
	if err := uc.store.Save(ctx, sess.ID(), merged); err != nil {
		_ = errutil.Handle(ctx, err, "failed to persist memory")
		uc.fail(result, types.TurnStageMerging, msgSaveFailed)
	} else {
		result.Persisted = true
	}
	sess.markPersisted(result.Persisted)
	uc.metrics.ObserveStage(types.TurnStageMerging.String(), uc.now().Sub(started))

	sess.transition(ctx, types.TurnStageGenerating)
	started = uc.now()
	reply, err := uc.reply.Generate(ctx, transcript, RenderMemoryContext(merged))
	uc.metrics.ObserveStage(types.TurnStageGenerating.String(), uc.now().Sub(started))
	if err != nil {
		logger.Warn("reply generation failed", "error", err)
		uc.fail(result, types.TurnStageGenerating, msgReplyFailed)
	} else {
		result.ReplyText = reply
	}

	if result.HasReply() && uc.synthesizer != nil {
		sess.transition(ctx, types.TurnStageSynthesizing)
		started = uc.now()
		audio, err := uc.synthesize(ctx, result.ReplyText)
		uc.metrics.ObserveStage(types.TurnStageSynthesizing.String(), uc.now().Sub(started))
		if err != nil {
			logger.Warn("speech synthesis failed", "error", err)
			uc.fail(result, types.TurnStageSynthesizing, msgSynthesisFailed)
		} else {
			result.ReplyAudio = audio
			result.AudioFormat = uc.synthesizer.Format()
		}
	}

	now := uc.now()
	turns := []model.ConversationTurn{{Role: types.RoleUser, Text: transcript, CreatedAt: now}}
	if result.HasReply() {
		turns = append(turns, model.ConversationTurn{Role: types.RoleAssistant, Text: result.ReplyText, CreatedAt: now})
	}
	sess.appendHistory(turns...)
	sess.touch(now)
	sess.transition(ctx, types.TurnStageIdle)

	result.FinishedAt = now
	uc.archive(ctx, result)

	if len(result.Errors) == 0 {
		uc.metrics.Turn(metrics.OutcomeCompleted)
	} else {
		uc.metrics.Turn(metrics.OutcomeDegraded)
	}
	logger.Info("turn finished",
		"persisted", result.Persisted,
		"has_reply", result.HasReply(),
		"has_audio", result.HasAudio(),
		"errors", len(result.Errors),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	return result
}

func (uc *TurnUseCase) synthesize(ctx context.Context, text string) ([]byte, error) {
	if uc.synthesizeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.synthesizeTimeout)
		defer cancel()
	}

	audio, err := uc.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to synthesize speech")
	}
	if len(audio) == 0 {
		return nil, goerr.New("speech synthesizer returned no audio")
	}
	return audio, nil
}

func (uc *TurnUseCase) fail(result *model.TurnResult, stage types.TurnStage, msg string) {
	result.Errors = append(result.Errors, model.TurnError{Stage: stage, Message: msg})
	uc.metrics.StageFailure(stage.String())
}

func (uc *TurnUseCase) archive(ctx context.Context, result *model.TurnResult) {
	if uc.turnLog == nil {
		return
	}
	record := model.NewTurnRecord(result)
	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := uc.turnLog.Append(ctx, record); err != nil {
			return goerr.Wrap(err, "failed to archive turn", goerr.V(TurnIDKey, record.ID))
		}
		return nil
	})
}
