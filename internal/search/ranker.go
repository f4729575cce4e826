package search

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"findd/internal/common/fsutil"
)

var nonAlnumRe = regexp.MustCompile(`[^а-яa-z0-9]+`)

// folderAliases maps spoken names to well-known root folder names.
var folderAliases = map[string][]string{
	"пользователи": {"Users"},
}

// Ranker picks the best path among search results.
type Ranker struct {
	// Exists reports whether a path is present on disk.
	Exists func(string) bool
	Log    zerolog.Logger
}

func NewRanker(log zerolog.Logger) *Ranker {
	return &Ranker{Exists: fsutil.PathExists, Log: log}
}

// NormalizeName lower-cases, folds ё to е and drops everything but Latin,
// Cyrillic letters and digits.
func NormalizeName(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "ё", "е")
	return nonAlnumRe.ReplaceAllString(s, "")
}

// Similarity returns the difflib ratio of a and b over runes.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// Score rates how well path matches the normalized target name. Higher is
// better. Shallow paths and paths on the requested drive get a bonus, long
// paths a small penalty. drive is a single letter or "".
func Score(path, target, drive string) int {
	base := NormalizeName(filepath.Base(strings.ReplaceAll(path, `\`, "/")))
	score := int(Similarity(target, base) * 100)
	switch {
	case target != "" && base == target:
		score += 180
	case target != "" && strings.HasSuffix(base, target):
		score += 110
	case target != "" && strings.Contains(base, target):
		score += 80
	case base != "" && strings.Contains(target, base):
		score += 50
	}
	depth := strings.Count(path, `\`) + strings.Count(path, "/")
	if bonus := 40 - 2*depth; bonus > 0 {
		score += bonus
	}
	if drive != "" && strings.HasPrefix(strings.ToLower(path), drive+`:\`) {
		score += 30
	}
	score -= utf8.RuneCountInString(path) / 80
	return score
}

// SelectBest returns the path to open. With a drive, a well-known alias
// or an exact root-level folder on that drive wins outright. Otherwise the
// highest scoring path wins; ties go to the earlier path. An empty list or
// a blank target selects nothing.
func (r *Ranker) SelectBest(paths []string, targetName, drive string) (string, bool) {
	if len(paths) == 0 || strings.TrimSpace(targetName) == "" {
		return "", false
	}
	exists := r.Exists
	if exists == nil {
		exists = fsutil.PathExists
	}
	drive = NormalizeDrive(drive)
	if drive != "" && targetName != "" {
		root := strings.ToUpper(drive) + `:\`
		if aliases, ok := folderAliases[strings.ToLower(strings.TrimSpace(targetName))]; ok {
			for _, a := range aliases {
				if p := root + a; exists(p) {
					r.Log.Debug().Str("path", p).Msg("alias match")
					return p, true
				}
			}
		}
		if direct := StripPunctuation(targetName); direct != "" {
			if p := root + direct; exists(p) {
				r.Log.Debug().Str("path", p).Msg("direct match")
				return p, true
			}
		}
	}
	target := NormalizeName(targetName)
	best, bestScore := "", 0
	for i, p := range paths {
		s := Score(p, target, drive)
		if i == 0 || s > bestScore {
			best, bestScore = p, s
		}
	}
	return best, true
}
