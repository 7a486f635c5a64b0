package model

import (
	"strings"
	"unicode"
)

// LabelFromID turns a field id such as "titleVenue" or "paper_method" into
// "Title Venue" / "Paper Method". Words break on spaces, underscores, dashes,
// lower-to-upper case changes and letter/digit boundaries.
func LabelFromID(id string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, capitalize(current))
			current = current[:0]
		}
	}

	var prev rune
	for i, r := range id {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case i > 0 && wordBoundary(prev, r):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
		prev = r
	}
	flush()
	return strings.Join(words, " ")
}

func wordBoundary(prev, r rune) bool {
	switch {
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	case unicode.IsLetter(prev) && unicode.IsDigit(r):
		return true
	case unicode.IsDigit(prev) && unicode.IsLetter(r):
		return true
	}
	return false
}

func capitalize(word []rune) string {
	out := make([]rune, len(word))
	for i, r := range word {
		if i == 0 {
			out[i] = unicode.ToUpper(r)
		} else {
			out[i] = unicode.ToLower(r)
		}
	}
	return string(out)
}
