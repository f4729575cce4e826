package search

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	folderKeywords   = []string{"папк", "каталог", "директори"}
	fileKeyword      = "файл"
	allDrivesPhrases = []string{"везде", "по всем дискам", "на всех дисках"}
	// "на диске d или c"; word boundaries are spelled out because \b is ASCII-only
	eitherDriveRe = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])на\s+диске\s+[a-zа-я]\s+или\s+[a-zа-я](?:$|[^\p{L}\p{N}_])`)
)

// Intent holds the keyword cues read from the raw utterance. They override
// what the language model returned.
type Intent struct {
	Folder    bool
	File      bool
	AllDrives bool
}

// NormalizeIntentText lower-cases, strips punctuation and collapses spaces.
func NormalizeIntentText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(StripPunctuation(text))), " ")
}

// DetectIntent reads folder, file and all-drives cues from normalized text.
func DetectIntent(norm string) Intent {
	var in Intent
	for _, kw := range folderKeywords {
		if strings.Contains(norm, kw) {
			in.Folder = true
			break
		}
	}
	in.File = strings.Contains(norm, fileKeyword)
	for _, p := range allDrivesPhrases {
		if strings.Contains(norm, p) {
			in.AllDrives = true
			break
		}
	}
	if !in.AllDrives {
		in.AllDrives = eitherDriveRe.MatchString(norm)
	}
	return in
}

// Trigger matches utterances whose first word starts with one of a set of
// command prefixes.
type Trigger struct {
	prefixes []string
}

func NewTrigger(prefixes []string) Trigger {
	t := Trigger{}
	for _, p := range prefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			t.prefixes = append(t.prefixes, p)
		}
	}
	return t
}

// Match reports whether the first word of text starts with a trigger prefix
// and the rest of that word is letters only.
func (t Trigger) Match(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimRightFunc(fields[0], unicode.IsPunct)
	for _, p := range t.prefixes {
		rest, ok := strings.CutPrefix(first, p)
		if !ok {
			continue
		}
		if strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) }) < 0 {
			return true
		}
	}
	return false
}
