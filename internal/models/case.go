package models

// ClueType tells the presentation layer what kind of evidence a clue carries.
// The content itself is opaque to the engine.
type ClueType string

const (
	ClueTypeSymptom   ClueType = "symptom"
	ClueTypeMetric    ClueType = "metric"
	ClueTypeLog       ClueType = "log"
	ClueTypeTestimony ClueType = "testimony"
	ClueTypeConfig    ClueType = "config"
)

// Clue is a single piece of evidence revealed to the player in authored order.
type Clue struct {
	ID      string   `json:"id" db:"id"`
	Title   string   `json:"title" db:"title"`
	Type    ClueType `json:"type" db:"type"`
	Content string   `json:"content" db:"content"`
	// Hint is optional. An empty hint means the clue has no hint to reveal.
	Hint string `json:"hint,omitempty" db:"hint"`
}

// HasHint reports whether the clue has an authored hint.
func (c Clue) HasHint() bool {
	return c.Hint != ""
}

// SolutionRubric grades a free-text diagnosis submission.
type SolutionRubric struct {
	// Diagnosis is the authored one-line root-cause statement.
	Diagnosis string `json:"diagnosis"`
	// Keywords are words or multi-word phrases expected in a correct submission.
	Keywords []string `json:"keywords"`
	// RootCause is the full remediation text shown after grading.
	RootCause string `json:"root_cause"`
}

// CaseDefinition is one authored incident scenario. Values returned by the
// case repository are shared across concurrent sessions and must never be
// mutated by callers.
type CaseDefinition struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
	// Clues in authored disclosure order. Clue ids are unique within a case.
	Clues  []Clue         `json:"clues"`
	Rubric SolutionRubric `json:"rubric"`
}

// Clue returns the clue with the given id.
func (c *CaseDefinition) Clue(id string) (Clue, bool) {
	for _, clue := range c.Clues {
		if clue.ID == id {
			return clue, true
		}
	}
	return Clue{}, false
}

// CaseSummary is the catalog row for a case without its clues and rubric.
type CaseSummary struct {
	ID         string `json:"id" db:"id"`
	Title      string `json:"title" db:"title"`
	Difficulty string `json:"difficulty" db:"difficulty"`
	Category   string `json:"category" db:"category"`
	ClueCount  int    `json:"clue_count" db:"clue_count"`
}
