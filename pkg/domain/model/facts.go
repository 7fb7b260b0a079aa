package model

// ExtractedFacts is the new information observed in a single utterance.
// It has the shape of UserMemory but every field is optional.
type ExtractedFacts struct {
	Age         *int
	Goals       []string
	Preferences []string
	Motivations []string
	Conditions  []string
}

// NewEmptyFacts returns facts meaning "nothing new": no age, empty lists
func NewEmptyFacts() *ExtractedFacts {
	return &ExtractedFacts{
		Goals:       []string{},
		Preferences: []string{},
		Motivations: []string{},
		Conditions:  []string{},
	}
}

// IsEmpty reports whether the facts carry no information
func (f *ExtractedFacts) IsEmpty() bool {
	return f == nil || (f.Age == nil &&
		len(f.Goals) == 0 &&
		len(f.Preferences) == 0 &&
		len(f.Motivations) == 0 &&
		len(f.Conditions) == 0)
}
