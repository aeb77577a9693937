package models

import (
	"slices"
	"time"
)

// SessionState is the lifecycle state of a drill session.
type SessionState string

const (
	SessionNotStarted SessionState = "not_started"
	SessionInProgress SessionState = "in_progress"
	// SessionSubmitted is terminal. A submitted session holds exactly one Outcome.
	SessionSubmitted SessionState = "submitted"
)

// DisclosureState records which clues and hints the player has seen.
// Disclosure is append-only: a revealed clue or a consumed hint is never
// hidden again, which keeps penalty scoring monotonic.
type DisclosureState struct {
	// RevealedClueIDs in reveal order, which is always a prefix of the
	// authored clue order.
	RevealedClueIDs []string `json:"revealed_clue_ids"`
	// UsedHintClueIDs holds the clue ids whose hints have been consumed.
	UsedHintClueIDs []string `json:"used_hint_clue_ids"`
}

// Revealed reports whether the clue has been revealed.
func (d DisclosureState) Revealed(clueID string) bool {
	return slices.Contains(d.RevealedClueIDs, clueID)
}

// HintUsed reports whether the hint of the clue has been consumed.
func (d DisclosureState) HintUsed(clueID string) bool {
	return slices.Contains(d.UsedHintClueIDs, clueID)
}

// Session is one player's attempt at one case. It is mutated only by the
// session engine, which serializes operations per session id.
type Session struct {
	ID         string          `json:"id"`
	CaseID     string          `json:"case_id"`
	State      SessionState    `json:"state"`
	Disclosure DisclosureState `json:"disclosure"`
	HintsUsed  int             `json:"hints_used"`
	StartedAt  time.Time       `json:"started_at"`
	// Outcome is set exactly once when the session is submitted.
	Outcome *Outcome `json:"outcome,omitempty"`
}

// Clone returns a deep copy so that stored sessions never alias the slices of
// the session being mutated by the engine.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Disclosure.RevealedClueIDs = slices.Clone(s.Disclosure.RevealedClueIDs)
	clone.Disclosure.UsedHintClueIDs = slices.Clone(s.Disclosure.UsedHintClueIDs)
	if s.Outcome != nil {
		outcome := *s.Outcome
		outcome.Grading.MatchedKeywords = slices.Clone(s.Outcome.Grading.MatchedKeywords)
		clone.Outcome = &outcome
	}
	return &clone
}

// Verdict is the categorical grading outcome prior to penalty adjustment.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictPartial   Verdict = "partial"
	VerdictIncorrect Verdict = "incorrect"
)

// GradingResult is the immutable result of grading one submission against a
// case rubric.
type GradingResult struct {
	// MatchedKeywords holds the rubric keywords found in the submission, in
	// rubric order.
	MatchedKeywords []string `json:"matched_keywords"`
	// CoverageRatio is len(MatchedKeywords) divided by the rubric keyword count.
	CoverageRatio float64 `json:"coverage_ratio"`
	// DiagnosisSimilarity is the token-overlap similarity between the
	// submission and the authored diagnosis string.
	DiagnosisSimilarity float64 `json:"diagnosis_similarity"`
	Verdict             Verdict `json:"verdict"`
}

// Outcome is the terminal result of a session: the grading result combined
// with the disclosure penalty.
type Outcome struct {
	// Score is the final score in [0, 100].
	Score int `json:"score"`
	// Penalty is the disclosure penalty in points deducted from the raw score.
	Penalty int           `json:"penalty"`
	Grading GradingResult `json:"grading"`
	// RootCause is the authored remediation text, disclosed after grading.
	RootCause string    `json:"root_cause"`
	GradedAt  time.Time `json:"graded_at"`
}
