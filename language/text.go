package language

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalize lowercases s, composes accents and collapses whitespace so that
// "Reunión" typed with a combining accent still matches the lexicon.
func normalize(s string) string {
	s = norm.NFC.String(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// words splits normalized text into letter runs.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// containsTerm reports whether the word sequence term occurs in ws.
func containsTerm(ws, term []string) bool {
	if len(term) == 0 || len(term) > len(ws) {
		return false
	}
outer:
	for i := 0; i+len(term) <= len(ws); i++ {
		for j, t := range term {
			if ws[i+j] != t {
				continue outer
			}
		}
		return true
	}
	return false
}
