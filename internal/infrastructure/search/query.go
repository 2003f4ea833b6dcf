package search

import (
	"strings"
	"unicode"
)

const (
	maxQueryWords = 5
	minWordLength = 4
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {},
}

// GenerateSearchQuery derives a keyword query from an article title.
// Only ASCII word characters survive; stop-words and words of three characters or
// fewer are dropped and at most five words are kept.
func GenerateSearchQuery(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, strings.ToLower(title))

	words := make([]string, 0, maxQueryWords)
	for _, word := range strings.Fields(cleaned) {
		if len(word) < minWordLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		words = append(words, word)
		if len(words) == maxQueryWords {
			break
		}
	}

	return strings.Join(words, " ")
}
