package usecase

import (
	"slices"
	"strconv"
	"strings"

	"github.com/secmon-lab/hippo/pkg/domain/model"
	"github.com/secmon-lab/hippo/pkg/domain/types"
)

// EmptyMemoryContext is rendered for a profile with no populated field
const EmptyMemoryContext = "The user has not shared any background information yet."

// RenderMemoryContext renders the profile as the background block of the
// reply prompt: one "Label: values" line per populated field. Values of a
// list field are sorted and comma-joined so that equal profiles always
// render identically.
func RenderMemoryContext(m *model.UserMemory) string {
	if m.IsEmpty() {
		return EmptyMemoryContext
	}

	lines := make([]string, 0, len(types.AllMemoryFields()))
	for _, field := range types.AllMemoryFields() {
		values := sortedValues(m, field)
		if len(values) == 0 {
			continue
		}
		lines = append(lines, field.Label()+": "+strings.Join(values, ", "))
	}
	return strings.Join(lines, "\n")
}

// RenderMemoryMarkdown renders the memory panel shown next to the chat.
// Every field is listed, populated or not.
func RenderMemoryMarkdown(m *model.UserMemory) string {
	var sb strings.Builder
	sb.WriteString("### Stored Memories\n")
	for _, field := range types.AllMemoryFields() {
		sb.WriteString("\n**")
		sb.WriteString(field.Label())
		sb.WriteString(":**\n")
		for _, v := range sortedValues(m, field) {
			sb.WriteString("- ")
			sb.WriteString(v)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func sortedValues(m *model.UserMemory, field types.MemoryField) []string {
	if m == nil {
		return nil
	}
	if field == types.MemoryFieldAge {
		if m.Age == nil {
			return nil
		}
		return []string{strconv.Itoa(*m.Age)}
	}
	values := slices.Clone(m.Values(field))
	slices.Sort(values)
	return values
}
