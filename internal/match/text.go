package match

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)

// TextSimilarity returns the Jaccard index of the token sets of two free-text
// descriptions, in [0,1]. Tokens of length <= 2 are discarded; an empty input
// or empty token set (on either side) scores 0, never a division by zero.
// Symmetric in its arguments.
func TextSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
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

func tokenSet(text string) map[string]struct{} {
	normalized := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), "")
	tokens := strings.Fields(normalized)

	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if len(token) <= 2 {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}
