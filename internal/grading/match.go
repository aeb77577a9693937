package grading

import "slices"

// maxGap is how many extra submission tokens may sit between two consecutive
// keyword tokens before the phrase no longer counts as a match. It keeps
// "cold cache" from matching a submission that mentions "cold" and "cache"
// three sentences apart.
const maxGap = 2

// matchKeyword reports whether the normalized keyword tokens appear in the
// normalized submission tokens.
//
// Single-token keywords must appear verbatim. Multi-token keywords must
// appear in their original relative order, with at most maxGap extra tokens
// between consecutive keyword tokens, and may absorb one token edit (a
// dropped or reworded keyword token) as long as at least one keyword token
// matches exactly. The edit tolerance is what lets "TTL expires" satisfy the
// keyword "ttl mismatch" while "the database is slow" satisfies nothing.
func matchKeyword(keyword, submission []string) bool {
	if len(keyword) == 0 || len(submission) == 0 {
		return false
	}
	if len(keyword) == 1 {
		return slices.Contains(submission, keyword[0])
	}
	for start := range submission {
		if alignPhrase(keyword, submission, 0, start, false, false) {
			return true
		}
	}
	return false
}

// alignPhrase tries to consume keyword[ki:] against submission[si:].
//
// The first matched token anchors at exactly si; every later keyword token
// must match within maxGap positions of where the previous one ended. One
// edit is allowed across the whole phrase: either skipping a keyword token
// or substituting it with the submission token at the current position.
// anchored tracks whether any keyword token has matched exactly, which is
// required for the alignment to count at all.
func alignPhrase(keyword, submission []string, ki, si int, edited, anchored bool) bool {
	if ki == len(keyword) {
		return anchored
	}
	// Skip this keyword token entirely.
	if !edited && alignPhrase(keyword, submission, ki+1, si, true, anchored) {
		return true
	}
	if si >= len(submission) {
		return false
	}

	window := si
	if anchored {
		window = min(si+maxGap, len(submission)-1)
	}
	for pos := si; pos <= window; pos++ {
		if submission[pos] == keyword[ki] {
			if alignPhrase(keyword, submission, ki+1, pos+1, edited, true) {
				return true
			}
		}
	}
	// Substitute the submission token at the current position.
	if !edited && alignPhrase(keyword, submission, ki+1, si+1, true, anchored) {
		return true
	}
	return false
}

// jaccard computes token-overlap similarity between two token slices:
// the size of the set intersection divided by the size of the union.
// It is deterministic and symmetric; two empty inputs score zero.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, token := range a {
		setA[token] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, token := range b {
		setB[token] = struct{}{}
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
