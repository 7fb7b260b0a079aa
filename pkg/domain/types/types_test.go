package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/domain/types"
)

func TestParseRole(t *testing.T) {
	t.Run("valid roles", func(t *testing.T) {
		for _, r := range types.AllRoles() {
			parsed, err := types.ParseRole(r.String())
			gt.NoError(t, err).Required()
			gt.Value(t, parsed).Equal(r)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := types.ParseRole("system")
		gt.Value(t, err).NotNil()
	})
}

func TestTurnStage_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from types.TurnStage
		to   types.TurnStage
		want bool
	}{
		{name: "idle to transcribing", from: types.TurnStageIdle, to: types.TurnStageTranscribing, want: true},
		{name: "transcribing to extracting", from: types.TurnStageTranscribing, to: types.TurnStageExtracting, want: true},
		{name: "transcribing to errored", from: types.TurnStageTranscribing, to: types.TurnStageErrored, want: true},
		{name: "extracting to errored", from: types.TurnStageExtracting, to: types.TurnStageErrored, want: false},
		{name: "generating to errored", from: types.TurnStageGenerating, to: types.TurnStageErrored, want: false},
		{name: "generating skips synthesis", from: types.TurnStageGenerating, to: types.TurnStageIdle, want: true},
		{name: "synthesizing to idle", from: types.TurnStageSynthesizing, to: types.TurnStageIdle, want: true},
		{name: "errored to idle", from: types.TurnStageErrored, to: types.TurnStageIdle, want: true},
		{name: "idle cannot jump to merging", from: types.TurnStageIdle, to: types.TurnStageMerging, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.from.CanTransition(tt.to)).Equal(tt.want)
		})
	}
}

func TestParseTurnStage(t *testing.T) {
	for _, s := range types.AllTurnStages() {
		parsed, err := types.ParseTurnStage(s.String())
		gt.NoError(t, err).Required()
		gt.Value(t, parsed).Equal(s)
	}

	_, err := types.ParseTurnStage("sleeping")
	gt.Value(t, err).NotNil()
}

func TestMemoryField(t *testing.T) {
	t.Run("labels are fixed", func(t *testing.T) {
		gt.Value(t, types.MemoryFieldAge.Label()).Equal("Age")
		gt.Value(t, types.MemoryFieldGoals.Label()).Equal("Goals")
		gt.Value(t, types.MemoryFieldPreferences.Label()).Equal("Preferences")
		gt.Value(t, types.MemoryFieldMotivations.Label()).Equal("Motivations")
		gt.Value(t, types.MemoryFieldConditions.Label()).Equal("Health Conditions")
	})

	t.Run("health_conditions is an alias of conditions", func(t *testing.T) {
		f, err := types.ParseMemoryField("health_conditions")
		gt.NoError(t, err).Required()
		gt.Value(t, f).Equal(types.MemoryFieldConditions)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := types.ParseMemoryField("hobbies")
		gt.Value(t, err).NotNil()
	})
}
