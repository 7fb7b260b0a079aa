package usecase_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/usecase"
)

func TestRenderMemoryContext(t *testing.T) {
	t.Run("empty memory renders the fixed sentence", func(t *testing.T) {
		gt.Value(t, usecase.RenderMemoryContext(model.NewUserMemory())).
			Equal("The user has not shared any background information yet.")
		gt.Value(t, usecase.RenderMemoryContext(nil)).Equal(usecase.EmptyMemoryContext)
	})

	t.Run("populated fields are rendered with labels", func(t *testing.T) {
		m := model.NewUserMemory()
		m.Age = intPtr(31)
		m.Goals = []string{"sleep better", "run 5k"}
		m.Conditions = []string{"asthma"}

		gt.Value(t, usecase.RenderMemoryContext(m)).Equal(
			"Age: 31\n" +
				"Goals: run 5k, sleep better\n" +
				"Health Conditions: asthma")
	})

	t.Run("field lines carry no list markers", func(t *testing.T) {
		m := model.NewUserMemory()
		m.Goals = []string{"swim"}
		m.Preferences = []string{"mornings", "outdoors"}
		m.Motivations = []string{"energy"}

		for _, line := range strings.Split(usecase.RenderMemoryContext(m), "\n") {
			gt.Bool(t, strings.HasPrefix(line, "-")).False()
			gt.Bool(t, strings.HasPrefix(line, "*")).False()
			gt.String(t, line).Contains(": ")
		}
		gt.Value(t, usecase.RenderMemoryContext(m)).Equal(
			"Goals: swim\nPreferences: mornings, outdoors\nMotivations: energy")
	})

	t.Run("rendering does not depend on insertion order", func(t *testing.T) {
		a := model.NewUserMemory()
		a.Preferences = []string{"tea", "coffee"}
		b := model.NewUserMemory()
		b.Preferences = []string{"coffee", "tea"}

		gt.Value(t, usecase.RenderMemoryContext(a)).Equal(usecase.RenderMemoryContext(b))
	})

	t.Run("age alone is enough to leave the empty branch", func(t *testing.T) {
		m := model.NewUserMemory()
		m.Age = intPtr(0)
		gt.Value(t, usecase.RenderMemoryContext(m)).
			Equal("Age: 0")
	})
}

func TestRenderMemoryMarkdown(t *testing.T) {
	m := model.NewUserMemory()
	m.Motivations = []string{"keep up with my kids"}

	md := usecase.RenderMemoryMarkdown(m)
	gt.String(t, md).Contains("### Stored Memories")
	gt.String(t, md).Contains("**Age:**")
	gt.String(t, md).Contains("**Motivations:**\n- keep up with my kids\n")
	gt.String(t, md).Contains("**Health Conditions:**")
}
