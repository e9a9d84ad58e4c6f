package text

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, drops every rune that is not a letter, digit or
// whitespace, and collapses whitespace runs to a single space.
// "Don't stop!" becomes "dont stop".
func Normalize(s string) string {
	return strings.Join(Tokenize(s), " ")
}

// Tokenize returns the normalized word sequence of s
func Tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if tokens == nil {
		return []string{}
	}
	return tokens
}
