// Package search turns a normalized query into engine CLI invocations and
// picks the best result. It holds the pattern builder, the file-type
// category table, intent detection, the executor and the ranker.
package search

import "strings"

// TargetType selects folders or files.
type TargetType string

const (
	TargetFolder  TargetType = "folder"
	TargetFile    TargetType = "file"
	TargetUnknown TargetType = "unknown"
)

// ParseTargetType maps free text to a TargetType; anything unrecognized is unknown.
func ParseTargetType(s string) TargetType {
	switch TargetType(strings.ToLower(strings.TrimSpace(s))) {
	case TargetFolder:
		return TargetFolder
	case TargetFile:
		return TargetFile
	default:
		return TargetUnknown
	}
}

// Searchable reports whether a search can run for t.
func (t TargetType) Searchable() bool { return t == TargetFolder || t == TargetFile }

// Query is the normalized form of a spoken search request.
type Query struct {
	Trigger    string
	TargetType TargetType
	Name       string
	// Drive is a single lower-case letter, or "" for all drives.
	Drive string
	// Extensions is a semicolon separated ext list, files only.
	Extensions string
}

// NormalizeDrive returns a single lower-case drive letter, or "" for
// empty input, "all" and anything that is not one letter.
func NormalizeDrive(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, `:\/`)
	r := []rune(s)
	if len(r) != 1 {
		return ""
	}
	if (r[0] >= 'a' && r[0] <= 'z') || (r[0] >= 'а' && r[0] <= 'я') {
		return latinDrive(r[0])
	}
	return ""
}

// latinDrive maps Cyrillic letters that transcription produces for drive
// names to the Latin drive letter they sound like.
func latinDrive(r rune) string {
	if r >= 'a' && r <= 'z' {
		return string(r)
	}
	switch r {
	case 'с':
		return "c"
	case 'д':
		return "d"
	case 'е':
		return "e"
	case 'ф':
		return "f"
	case 'г':
		return "g"
	case 'х':
		return "h"
	case 'и':
		return "i"
	case 'й':
		return "j"
	case 'к':
		return "k"
	case 'л':
		return "l"
	case 'м':
		return "m"
	case 'н':
		return "n"
	case 'о':
		return "o"
	case 'п':
		return "p"
	case 'р':
		return "r"
	case 'т':
		return "t"
	case 'в':
		return "v"
	case 'з':
		return "z"
	case 'б':
		return "b"
	case 'а':
		return "a"
	default:
		return ""
	}
}
