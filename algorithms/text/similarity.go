package text

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Levenshtein returns the rune-level edit distance between a and b
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	return matchr.Levenshtein(a, b)
}

// Similarity is 1 - levenshtein/maxLen in [0, 1]. Two empty strings are identical.
// Similarity("quick", "quik") == 0.8.
func Similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}

	ratio := 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
	if ratio < 0 {
		return 0
	}
	return ratio
}
