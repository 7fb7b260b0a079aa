package types

import "fmt"

// MemoryField names a field of the user memory profile
type MemoryField string

const (
	MemoryFieldAge         MemoryField = "age"
	MemoryFieldGoals       MemoryField = "goals"
	MemoryFieldPreferences MemoryField = "preferences"
	MemoryFieldMotivations MemoryField = "motivations"
	MemoryFieldConditions  MemoryField = "conditions"
)

// AllMemoryFields returns all fields in their canonical render order
func AllMemoryFields() []MemoryField {
	return []MemoryField{
		MemoryFieldAge,
		MemoryFieldGoals,
		MemoryFieldPreferences,
		MemoryFieldMotivations,
		MemoryFieldConditions,
	}
}

// IsValid checks if the field is valid
func (f MemoryField) IsValid() bool {
	switch f {
	case MemoryFieldAge,
		MemoryFieldGoals,
		MemoryFieldPreferences,
		MemoryFieldMotivations,
		MemoryFieldConditions:
		return true
	default:
		return false
	}
}

// Label returns the fixed human readable label used in prompts
func (f MemoryField) Label() string {
	switch f {
	case MemoryFieldAge:
		return "Age"
	case MemoryFieldGoals:
		return "Goals"
	case MemoryFieldPreferences:
		return "Preferences"
	case MemoryFieldMotivations:
		return "Motivations"
	case MemoryFieldConditions:
		return "Health Conditions"
	default:
		return string(f)
	}
}

// String returns the string representation of the field
func (f MemoryField) String() string {
	return string(f)
}

// ParseMemoryField parses a string into a MemoryField.
// "health_conditions" is accepted as an alias of "conditions".
func ParseMemoryField(s string) (MemoryField, error) {
	if s == "health_conditions" {
		return MemoryFieldConditions, nil
	}
	field := MemoryField(s)
	if !field.IsValid() {
		return "", fmt.Errorf("invalid memory field: %s", s)
	}
	return field, nil
}
