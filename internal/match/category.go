package match

import "strings"

// locationOnlyKeywords marks the sanitation bucket. Sanitation-type issues
// recur over wide street segments and GPS drifts more on foot-reported trash
// than on fixed-location categories like potholes, so duplicate decisions for
// these categories rely on location alone and skip the text comparison.
//
// This list is the single source of truth for both the online and batch paths.
var locationOnlyKeywords = []string{"sanitation", "waste", "garbage", "trash", "litter"}

// NormalizeCategory canonicalizes a free-text category label for equality
// comparison.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// LocationOnlyKeywords returns the sanitation-bucket substrings, for stores
// that push the bucket test down into a query.
func LocationOnlyKeywords() []string {
	keywords := make([]string, len(locationOnlyKeywords))
	copy(keywords, locationOnlyKeywords)
	return keywords
}

// IsLocationOnlyCategory reports whether the normalized category falls in the
// sanitation bucket.
func IsLocationOnlyCategory(normalized string) bool {
	for _, keyword := range locationOnlyKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
