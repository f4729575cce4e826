package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	punctRe        = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s-]+`)
	underscoreDash = regexp.MustCompile(`[_-]+`)
)

// Gap is the lazy "anything" separator placed between pattern chunks.
const Gap = `[\s\S]*?`

// StripPunctuation replaces everything except letters, digits, marks,
// underscores, whitespace and hyphens with spaces and collapses whitespace.
func StripPunctuation(s string) string {
	return strings.Join(strings.Fields(punctRe.ReplaceAllString(s, " ")), " ")
}

// Tokenize splits a name on underscores, hyphens, whitespace and camel-case
// boundaries. Letter case is kept.
func Tokenize(name string) []string {
	return strings.Fields(splitCamel(underscoreDash.ReplaceAllString(name, " ")))
}

// splitCamel inserts a space before an upper-case Latin or Cyrillic letter
// that follows a letter or digit.
func splitCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	var prev rune
	for i, r := range s {
		if i > 0 && isCamelUpper(r) && isCamelPrev(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isCamelUpper(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'А' && r <= 'Я')
}

func isCamelPrev(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
		(r >= 'А' && r <= 'я') || r == 'Ё' || r == 'ё' ||
		(r >= '0' && r <= '9')
}

// BuildPattern derives the fuzzy regex used for the engine's regex search.
// One token becomes prefix(3)…suffix(2); several tokens become their first
// four characters joined by lazy gaps and terminated with ".+". It returns
// "" when no usable pattern exists.
func BuildPattern(name string) string {
	words := Tokenize(StripPunctuation(name))
	switch len(words) {
	case 0:
		return ""
	case 1:
		w := []rune(words[0])
		if len(w) < 2 {
			return ""
		}
		prefix := w
		if len(w) >= 3 {
			prefix = w[:3]
		}
		suffix := w[len(w)-2:]
		return string(prefix) + Gap + string(suffix)
	}
	chunks := make([]string, len(words))
	for i, w := range words {
		chunks[i] = chunk(w)
	}
	return strings.Join(chunks, Gap) + ".+"
}

func chunk(w string) string {
	if utf8.RuneCountInString(w) <= 3 {
		return w
	}
	return string([]rune(w)[:4])
}
