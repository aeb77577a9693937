package session_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/opsdrill/opsdrill/internal/repositories"
	"github.com/opsdrill/opsdrill/internal/session"
	"github.com/opsdrill/opsdrill/internal/testhelpers"
)

// fakeCases serves case definitions from memory so engine tests need no
// database.
type fakeCases struct {
	cases map[string]*models.CaseDefinition
}

func (f *fakeCases) GetCase(_ context.Context, caseID string) (*models.CaseDefinition, error) {
	c, ok := f.cases[caseID]
	if !ok {
		return nil, repositories.ErrCaseNotFound
	}
	return c, nil
}

// newColdCacheCase builds a five-clue case with hints on the first four
// clues, mirroring the shape of the seeded content.
func newColdCacheCase() *models.CaseDefinition {
	clues := make([]models.Clue, 5)
	for i := range clues {
		clues[i] = models.Clue{
			ID:      fmt.Sprintf("clue-%d", i),
			Title:   fmt.Sprintf("Clue %d", i),
			Type:    models.ClueTypeLog,
			Content: fmt.Sprintf("evidence number %d", i),
		}
		if i < 4 {
			clues[i].Hint = fmt.Sprintf("hint number %d", i)
		}
	}
	return &models.CaseDefinition{
		ID:         "weekend-cold-cache",
		Title:      "Monday Morning Meltdown",
		Difficulty: "medium",
		Category:   "caching",
		Clues:      clues,
		Rubric: models.SolutionRubric{
			Diagnosis: "Cache TTL mismatch with warming schedule",
			Keywords:  []string{"cache warming", "ttl mismatch", "cold cache"},
			RootCause: "Align the TTL with the warming schedule.",
		},
	}
}

// correctGuess matches all three rubric keywords of newColdCacheCase.
const correctGuess = "the cache warming job doesn't run on weekends so TTL expires and we get a cold cache"

func newTestEngine(t *testing.T, cases ...*models.CaseDefinition) *session.Engine {
	t.Helper()
	byID := make(map[string]*models.CaseDefinition, len(cases))
	for _, c := range cases {
		byID[c.ID] = c
	}
	return session.NewEngine(
		&fakeCases{cases: byID},
		session.NewMemoryStore(),
		nil,
		testhelpers.NewLogger(io.Discard),
	)
}
