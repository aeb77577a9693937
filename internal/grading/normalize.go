package grading

import "strings"

// stopwords are dropped from both submissions and rubric phrases so that
// filler words never decide a match. Negations such as "not" stay in.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "been": {}, "by": {}, "for": {}, "from": {}, "get": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "our": {}, "so": {}, "that": {}, "the": {}, "their": {},
	"there": {}, "they": {}, "this": {}, "to": {}, "was": {}, "we": {},
	"were": {}, "with": {},
}

// stem applies a fixed suffix-stripping pass: trailing "ing" on longer words
// and a plural "s". This is intentionally crude; it only needs to fold the
// surface forms that show up in incident write-ups ("warming"/"warm",
// "caches"/"cache"). It must stay deterministic, so no dictionary lookups.
func stem(token string) string {
	if len(token) > 5 && strings.HasSuffix(token, "ing") {
		return token[:len(token)-3]
	}
	if len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") {
		return token[:len(token)-1]
	}
	return token
}

// Tokens normalizes free text into comparable content tokens: lowercase,
// punctuation stripped, whitespace collapsed, stopwords removed, and each
// token stemmed. The same pass is applied to submissions, rubric keywords and
// the diagnosis string so that they meet on equal terms.
func Tokens(text string) []string {
	lowered := strings.ToLower(text)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !isWordRune(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if _, ok := stopwords[field]; ok {
			continue
		}
		tokens = append(tokens, stem(field))
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}
