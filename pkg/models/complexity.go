package models

// Level represents the complexity tier of a question.
// The tier drives token budgeting: deeper questions earn longer answers.
type Level string

const (
	// LevelSimple is for greetings and one-line factual questions.
	LevelSimple Level = "simple"
	// LevelNormal is for everyday conversational questions.
	LevelNormal Level = "normal"
	// LevelDeep is for questions that warrant reasoning or comparison.
	LevelDeep Level = "deep"
	// LevelExpert is for questions requiring domain expertise.
	LevelExpert Level = "expert"
)

// Valid returns true if the level is a known value.
func (l Level) Valid() bool {
	switch l {
	case LevelSimple, LevelNormal, LevelDeep, LevelExpert:
		return true
	default:
		return false
	}
}

// Rank returns the ordinal position of the level, with LevelSimple at 0.
// Unknown levels rank as LevelNormal.
func (l Level) Rank() int {
	switch l {
	case LevelSimple:
		return 0
	case LevelNormal:
		return 1
	case LevelDeep:
		return 2
	case LevelExpert:
		return 3
	default:
		return 1
	}
}

// Classification is the result of classifying a question.
type Classification struct {
	// Level is the validated complexity tier.
	Level Level `json:"level"`
	// Category is a free-form topic label (factual, creative, advice, ...).
	Category string `json:"category"`
	// Reasoning is the model's short justification, kept for debugging.
	Reasoning string `json:"reasoning,omitempty"`
}
