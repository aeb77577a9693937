// Package grading scores free-text root-cause submissions against the
// authored rubric of an incident case. Grading is a pure function: no I/O,
// no randomness, and identical inputs always produce identical results.
package grading

import (
	"github.com/opsdrill/opsdrill/internal/models"
)

// Verdict thresholds. The coverage thresholds act on the matched share of
// rubric keywords, the similarity thresholds on token overlap with the
// authored diagnosis string. Either signal alone can carry a verdict.
const (
	correctCoverage   = 0.6
	correctSimilarity = 0.75
	partialCoverage   = 0.3
	partialSimilarity = 0.4
)

// Grade scores a submission against the rubric.
//
// A submission that normalizes to nothing grades as incorrect with zero
// coverage; grading never fails, since a submitted session must always
// receive a result.
func Grade(submission string, rubric models.SolutionRubric) models.GradingResult {
	submissionTokens := Tokens(submission)
	if len(submissionTokens) == 0 {
		return models.GradingResult{
			MatchedKeywords:     nil,
			CoverageRatio:       0,
			DiagnosisSimilarity: 0,
			Verdict:             models.VerdictIncorrect,
		}
	}

	var matched []string
	for _, keyword := range rubric.Keywords {
		if matchKeyword(Tokens(keyword), submissionTokens) {
			matched = append(matched, keyword)
		}
	}

	coverage := 0.0
	if len(rubric.Keywords) > 0 {
		coverage = float64(len(matched)) / float64(len(rubric.Keywords))
	}
	similarity := jaccard(submissionTokens, Tokens(rubric.Diagnosis))

	return models.GradingResult{
		MatchedKeywords:     matched,
		CoverageRatio:       coverage,
		DiagnosisSimilarity: similarity,
		Verdict:             verdict(coverage, similarity),
	}
}

func verdict(coverage, similarity float64) models.Verdict {
	switch {
	case coverage >= correctCoverage || similarity >= correctSimilarity:
		return models.VerdictCorrect
	case coverage >= partialCoverage || similarity >= partialSimilarity:
		return models.VerdictPartial
	default:
		return models.VerdictIncorrect
	}
}
