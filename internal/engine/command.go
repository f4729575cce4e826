package engine

import (
	"strconv"
	"strings"
)

// CommandKind selects which query CLI invocation a CLICommand renders.
type CommandKind int

const (
	KindSearch CommandKind = iota
	KindProbe
	KindExit
)

// TypeFilter restricts results to folders or files.
type TypeFilter int

const (
	TypeAny TypeFilter = iota
	TypeFolders
	TypeFiles
)

// Flag returns the CLI attribute switch for f, or "" for TypeAny.
func (f TypeFilter) Flag() string {
	switch f {
	case TypeFolders:
		return "/ad"
	case TypeFiles:
		return "/a-d"
	default:
		return ""
	}
}

// CLICommand is a typed description of one query CLI invocation. Args
// renders it in the argument order the CLI expects.
type CLICommand struct {
	Kind     CommandKind
	Instance string
	// Drive limits a search to one drive root, given as a single letter.
	Drive string
	// Regex and Text are mutually exclusive; Regex wins when both are set.
	Regex string
	Text  string
	Limit int
	Sort  string
	// Extensions is a semicolon separated list applied as ext:<list> in
	// regex mode. Plain searches carry the filter inside Text.
	Extensions string
	Type       TypeFilter
	ExportFile string
	UTF8BOM    bool
}

// ProbeCommand is the cheapest query that only succeeds over a live IPC channel.
func ProbeCommand(instance string) CLICommand {
	return CLICommand{Kind: KindProbe, Instance: instance}
}

// ExitCommand asks the named instance to shut down.
func ExitCommand(instance string) CLICommand {
	return CLICommand{Kind: KindExit, Instance: instance}
}

// Args renders the command line arguments, without the program name.
func (c CLICommand) Args() []string {
	var args []string
	if c.Instance != "" {
		args = append(args, "-instance", c.Instance)
	}
	switch c.Kind {
	case KindProbe:
		return append(args, "-n", "1", "*")
	case KindExit:
		return append(args, "-exit")
	}
	if d := normalizeDrive(c.Drive); d != "" {
		args = append(args, "-path", d+`:\`)
	}
	regex := c.Regex != ""
	if regex {
		args = append(args, "-r", c.Regex)
	} else if c.Text != "" {
		args = append(args, c.Text)
	}
	if c.Limit > 0 {
		args = append(args, "-n", strconv.Itoa(c.Limit))
	}
	if c.Sort != "" {
		args = append(args, "-sort", c.Sort)
	}
	if regex && c.Extensions != "" {
		args = append(args, "ext:"+c.Extensions)
	}
	if flag := c.Type.Flag(); flag != "" {
		args = append(args, flag)
	}
	if c.ExportFile != "" {
		args = append(args, "-export-txt", c.ExportFile)
		if c.UTF8BOM {
			args = append(args, "-utf8-bom")
		}
	}
	return args
}

func normalizeDrive(d string) string {
	d = strings.TrimSpace(d)
	d = strings.TrimRight(d, `:\/`)
	if len(d) != 1 {
		return ""
	}
	return strings.ToLower(d)
}

// FormatArgsForLog joins args for display, quoting those with spaces.
func FormatArgsForLog(args []string) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t") {
			parts = append(parts, strconv.Quote(a))
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
