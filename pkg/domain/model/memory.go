package model

import (
	"slices"

	"github.com/secmon-lab/hippo/pkg/domain/types"
)

// UserMemory is the durable profile of one user. Age is overwritten
// wholesale on update; every other field is a set of free-text strings
// that only grows.
type UserMemory struct {
	Age         *int
	Goals       []string
	Preferences []string
	Motivations []string
	Conditions  []string
}

// NewUserMemory returns an empty profile: no age, all sets empty
func NewUserMemory() *UserMemory {
	return &UserMemory{
		Goals:       []string{},
		Preferences: []string{},
		Motivations: []string{},
		Conditions:  []string{},
	}
}

// Normalize replaces nil sets with empty ones and collapses duplicates,
// keeping first occurrence order.
func (m *UserMemory) Normalize() *UserMemory {
	m.Goals = dedupe(m.Goals)
	m.Preferences = dedupe(m.Preferences)
	m.Motivations = dedupe(m.Motivations)
	m.Conditions = dedupe(m.Conditions)
	return m
}

// Clone returns a deep copy
func (m *UserMemory) Clone() *UserMemory {
	if m == nil {
		return NewUserMemory()
	}
	copied := &UserMemory{
		Goals:       slices.Clone(m.Goals),
		Preferences: slices.Clone(m.Preferences),
		Motivations: slices.Clone(m.Motivations),
		Conditions:  slices.Clone(m.Conditions),
	}
	if m.Age != nil {
		age := *m.Age
		copied.Age = &age
	}
	return copied.Normalize()
}

// IsEmpty reports whether no field is populated
func (m *UserMemory) IsEmpty() bool {
	return m == nil || (m.Age == nil &&
		len(m.Goals) == 0 &&
		len(m.Preferences) == 0 &&
		len(m.Motivations) == 0 &&
		len(m.Conditions) == 0)
}

// Values returns the set stored under a list field. Age has no set and
// returns nil.
func (m *UserMemory) Values(field types.MemoryField) []string {
	switch field {
	case types.MemoryFieldGoals:
		return m.Goals
	case types.MemoryFieldPreferences:
		return m.Preferences
	case types.MemoryFieldMotivations:
		return m.Motivations
	case types.MemoryFieldConditions:
		return m.Conditions
	default:
		return nil
	}
}

// Merge applies facts and returns the resulting profile. The receiver is
// not modified. A non-nil fact age replaces the current one; every
// non-empty fact list is unioned into the matching set by exact string.
func (m *UserMemory) Merge(facts *ExtractedFacts) *UserMemory {
	merged := m.Clone()
	if facts == nil {
		return merged
	}

	if facts.Age != nil {
		age := *facts.Age
		merged.Age = &age
	}
	merged.Goals = union(merged.Goals, facts.Goals)
	merged.Preferences = union(merged.Preferences, facts.Preferences)
	merged.Motivations = union(merged.Motivations, facts.Motivations)
	merged.Conditions = union(merged.Conditions, facts.Conditions)

	return merged
}

// Equal compares two profiles treating list fields as sets
func (m *UserMemory) Equal(other *UserMemory) bool {
	if m == nil || other == nil {
		return m == other
	}
	if (m.Age == nil) != (other.Age == nil) {
		return false
	}
	if m.Age != nil && *m.Age != *other.Age {
		return false
	}
	return sameSet(m.Goals, other.Goals) &&
		sameSet(m.Preferences, other.Preferences) &&
		sameSet(m.Motivations, other.Motivations) &&
		sameSet(m.Conditions, other.Conditions)
}

func dedupe(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

func union(current, added []string) []string {
	if len(added) == 0 {
		return current
	}
	return dedupe(append(slices.Clone(current), added...))
}

func sameSet(a, b []string) bool {
	x := slices.Sorted(slices.Values(dedupe(a)))
	y := slices.Sorted(slices.Values(dedupe(b)))
	return slices.Equal(x, y)
}
