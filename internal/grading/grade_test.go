package grading_test

import (
	"fmt"
	"github.com/google/go-cmp/cmp"
	"github.com/opsdrill/opsdrill/internal/grading"
	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/stretchr/testify/require"
	"testing"
)

var cacheRubric = models.SolutionRubric{
	Diagnosis: "Cache TTL mismatch with warming schedule",
	Keywords:  []string{"cache warming", "ttl mismatch", "cold cache"},
	RootCause: "The warming job skips weekends while the TTL does not.",
}

func TestGradeFullCoverage(t *testing.T) {
	t.Parallel()
	submission := "the cache warming job doesn't run on weekends so TTL expires and we get a cold cache"

	result := grading.Grade(submission, cacheRubric)

	require.Equal(t, []string{"cache warming", "ttl mismatch", "cold cache"}, result.MatchedKeywords)
	require.InDelta(t, 1.0, result.CoverageRatio, 1e-9)
	require.Equal(t, models.VerdictCorrect, result.Verdict)
}

func TestGradeUnrelatedSubmission(t *testing.T) {
	t.Parallel()
	result := grading.Grade("the database is slow", cacheRubric)

	require.Empty(t, result.MatchedKeywords)
	require.Zero(t, result.CoverageRatio)
	require.Zero(t, result.DiagnosisSimilarity)
	require.Equal(t, models.VerdictIncorrect, result.Verdict)
}

func TestGradeEmptySubmission(t *testing.T) {
	t.Parallel()
	for _, submission := range []string{"", "   ", "?!... --- !!!"} {
		result := grading.Grade(submission, cacheRubric)
		require.Zero(t, result.CoverageRatio)
		require.Equal(t, models.VerdictIncorrect, result.Verdict)
	}
}

func TestGradeIsPure(t *testing.T) {
	t.Parallel()
	submission := "cold cache because the warming schedule mismatches the TTL"

	first := grading.Grade(submission, cacheRubric)
	for range 10 {
		repeat := grading.Grade(submission, cacheRubric)
		if diff := cmp.Diff(first, repeat); diff != "" {
			t.Fatalf("grade not deterministic (-first +repeat):\n%s", diff)
		}
	}
}

func TestGradeCoverageMonotonicInEvidence(t *testing.T) {
	t.Parallel()
	submission := "the api latency went up after the deploy"
	previous := grading.Grade(submission, cacheRubric).CoverageRatio

	// Appending any rubric keyword verbatim never decreases coverage.
	for _, keyword := range cacheRubric.Keywords {
		submission = fmt.Sprintf("%s %s", submission, keyword)
		coverage := grading.Grade(submission, cacheRubric).CoverageRatio
		require.GreaterOrEqual(t, coverage, previous, "after appending %q", keyword)
		previous = coverage
	}
	require.InDelta(t, 1.0, previous, 1e-9)
}

func TestGradeSimilarityOnlyVerdicts(t *testing.T) {
	t.Parallel()
	rubric := models.SolutionRubric{
		Diagnosis: "connection pool exhausted by leaked transactions",
		Keywords:  []string{"unrelated keyword phrase"},
		RootCause: "",
	}

	// Identical wording scores full similarity and carries CORRECT on its own.
	result := grading.Grade("connection pool exhausted by leaked transactions", rubric)
	require.InDelta(t, 1.0, result.DiagnosisSimilarity, 1e-9)
	require.Equal(t, models.VerdictCorrect, result.Verdict)

	// Sharing three of five diagnosis tokens lands in the partial band.
	result = grading.Grade("the pool exhausted and leaked", rubric)
	require.Equal(t, models.VerdictPartial, result.Verdict)
}

func TestGradeCoverageThresholds(t *testing.T) {
	t.Parallel()
	rubric := models.SolutionRubric{
		Diagnosis: "zz yy xx ww vv",
		Keywords:  []string{"alpha", "bravo", "charlie", "delta", "echo"},
		RootCause: "",
	}
	tests := []struct {
		name       string
		submission string
		verdict    models.Verdict
	}{
		{name: "three of five is correct", submission: "alpha bravo charlie", verdict: models.VerdictCorrect},
		{name: "two of five is partial", submission: "alpha bravo", verdict: models.VerdictPartial},
		{name: "one of five is incorrect", submission: "alpha only here", verdict: models.VerdictIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := grading.Grade(tt.submission, rubric)
			require.Equal(t, tt.verdict, result.Verdict)
		})
	}
}

func TestGradePhraseWindow(t *testing.T) {
	t.Parallel()
	rubric := models.SolutionRubric{
		Diagnosis: "totally different wording here",
		Keywords:  []string{"connection pool exhausted"},
		RootCause: "",
	}

	// All phrase tokens present but scattered beyond the window: no match.
	scattered := "connection counts looked flat for hours while pool metrics stayed quiet and nothing suggested an exhausted state"
	result := grading.Grade(scattered, rubric)
	require.Empty(t, result.MatchedKeywords)

	// In order and close together: match.
	adjacent := "looks like the connection pool is exhausted"
	result = grading.Grade(adjacent, rubric)
	require.Equal(t, []string{"connection pool exhausted"}, result.MatchedKeywords)

	// Rewording a single phrase token still matches.
	reworded := "the connection pool got drained overnight"
	result = grading.Grade(reworded, rubric)
	require.Equal(t, []string{"connection pool exhausted"}, result.MatchedKeywords)
}
