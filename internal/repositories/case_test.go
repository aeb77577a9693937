package repositories_test

import (
	"context"
	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/opsdrill/opsdrill/internal/repositories"
	"github.com/opsdrill/opsdrill/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

func TestCaseRepository_GetCase(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCaseRepository(db, testhelpers.NewLogger(io.Discard))

	tests := []struct {
		name    string
		caseID  string
		wantErr error
		check   func(t *testing.T, c *models.CaseDefinition)
	}{
		{
			name:    "seeded caching case",
			caseID:  "weekend-cold-cache",
			wantErr: nil,
			check: func(t *testing.T, c *models.CaseDefinition) {
				require.Equal(t, "Monday Morning Meltdown", c.Title)
				require.Equal(t, "caching", c.Category)
				require.Len(t, c.Clues, 5)
				// Authored disclosure order.
				require.Equal(t, "pager-report", c.Clues[0].ID)
				require.Equal(t, "redis-log", c.Clues[4].ID)
				// Hints are optional; the last clue has none.
				require.True(t, c.Clues[0].HasHint())
				require.False(t, c.Clues[4].HasHint())
				require.Equal(t, "Cache TTL mismatch with warming schedule", c.Rubric.Diagnosis)
				require.ElementsMatch(t,
					[]string{"cache warming", "ttl mismatch", "cold cache"},
					c.Rubric.Keywords)
			},
		},
		{
			name:    "seeded database case",
			caseID:  "payments-pool-exhaustion",
			wantErr: nil,
			check: func(t *testing.T, c *models.CaseDefinition) {
				require.Len(t, c.Clues, 4)
				require.Equal(t, models.ClueTypeTestimony, c.Clues[0].Type)
				require.Len(t, c.Rubric.Keywords, 4)
			},
		},
		{
			name:    "unknown case",
			caseID:  "nonexistent",
			wantErr: repositories.ErrCaseNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := repo.GetCase(context.Background(), tt.caseID)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, c)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, c)
			require.Equal(t, tt.caseID, c.ID)
			tt.check(t, c)
		})
	}
}

func TestCaseRepository_GetCaseReturnsFreshValues(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCaseRepository(db, testhelpers.NewLogger(io.Discard))

	first, err := repo.GetCase(context.Background(), "weekend-cold-cache")
	require.NoError(t, err)

	// Mutating one returned value must not leak into later reads.
	first.Clues[0].Title = "tampered"
	first.Rubric.Keywords[0] = "tampered"

	second, err := repo.GetCase(context.Background(), "weekend-cold-cache")
	require.NoError(t, err)
	require.Equal(t, "The page", second.Clues[0].Title)
	require.NotContains(t, second.Rubric.Keywords, "tampered")
}

func TestCaseRepository_ListCases(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCaseRepository(db, testhelpers.NewLogger(io.Discard))

	summaries, err := repo.ListCases(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	// Ordered by id.
	require.Equal(t, "payments-pool-exhaustion", summaries[0].ID)
	require.Equal(t, 4, summaries[0].ClueCount)
	require.Equal(t, "weekend-cold-cache", summaries[1].ID)
	require.Equal(t, 5, summaries[1].ClueCount)
}
