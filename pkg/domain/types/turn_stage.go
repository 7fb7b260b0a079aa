package types

import "fmt"

// TurnStage is a state of the turn pipeline.
//
//	Idle -> Transcribing -> Extracting -> Merging -> Generating -> Synthesizing -> Idle
//
// Errored is only reachable from Transcribing.
type TurnStage string

const (
	TurnStageIdle         TurnStage = "idle"
	TurnStageTranscribing TurnStage = "transcribing"
	TurnStageExtracting   TurnStage = "extracting"
	TurnStageMerging      TurnStage = "merging"
	TurnStageGenerating   TurnStage = "generating"
	TurnStageSynthesizing TurnStage = "synthesizing"
	TurnStageErrored      TurnStage = "errored"
)

// AllTurnStages returns all stages in pipeline order, Errored last
func AllTurnStages() []TurnStage {
	return []TurnStage{
		TurnStageIdle,
		TurnStageTranscribing,
		TurnStageExtracting,
		TurnStageMerging,
		TurnStageGenerating,
		TurnStageSynthesizing,
		TurnStageErrored,
	}
}

// IsValid checks if the stage is valid
func (s TurnStage) IsValid() bool {
	switch s {
	case TurnStageIdle,
		TurnStageTranscribing,
		TurnStageExtracting,
		TurnStageMerging,
		TurnStageGenerating,
		TurnStageSynthesizing,
		TurnStageErrored:
		return true
	default:
		return false
	}
}

// Next returns the stage that follows s on the success path.
// Synthesizing wraps back to Idle; Errored stays Errored.
func (s TurnStage) Next() TurnStage {
	switch s {
	case TurnStageIdle:
		return TurnStageTranscribing
	case TurnStageTranscribing:
		return TurnStageExtracting
	case TurnStageExtracting:
		return TurnStageMerging
	case TurnStageMerging:
		return TurnStageGenerating
	case TurnStageGenerating:
		return TurnStageSynthesizing
	case TurnStageSynthesizing:
		return TurnStageIdle
	default:
		return TurnStageErrored
	}
}

// CanTransition reports whether the pipeline may move from s to next
func (s TurnStage) CanTransition(next TurnStage) bool {
	if next == TurnStageErrored {
		return s == TurnStageTranscribing
	}
	if s == TurnStageErrored {
		return next == TurnStageIdle
	}
	// Generating may skip synthesis when no reply was produced
	if s == TurnStageGenerating && next == TurnStageIdle {
		return true
	}
	return s.Next() == next
}

// String returns the string representation of the stage
func (s TurnStage) String() string {
	return string(s)
}

// ParseTurnStage parses a string into a TurnStage
func ParseTurnStage(s string) (TurnStage, error) {
	stage := TurnStage(s)
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid turn stage: %s", s)
	}
	return stage, nil
}
