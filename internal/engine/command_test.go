package engine

import (
	"reflect"
	"testing"
)

func TestCLICommandArgs(t *testing.T) {
	cases := []struct {
		name string
		cmd  CLICommand
		want []string
	}{
		{"probe default", ProbeCommand(""), []string{"-n", "1", "*"}},
		{"probe named", ProbeCommand("findd"), []string{"-instance", "findd", "-n", "1", "*"}},
		{"exit", ExitCommand("x"), []string{"-instance", "x", "-exit"}},
		{"regex", CLICommand{Regex: "a.+", Drive: "D:", Limit: 30, Sort: "name-ascending", Extensions: "mp3", Type: TypeFiles, ExportFile: "out.txt", UTF8BOM: true},
			[]string{"-path", `d:\`, "-r", "a.+", "-n", "30", "-sort", "name-ascending", "ext:mp3", "/a-d", "-export-txt", "out.txt", "-utf8-bom"}},
		{"plain ignores ext field", CLICommand{Text: "games ext:exe", Extensions: "exe", Type: TypeFolders},
			[]string{"games ext:exe", "/ad"}},
		{"bad drive dropped", CLICommand{Text: "x", Drive: "all"}, []string{"x"}},
	}
	for _, c := range cases {
		if got := c.cmd.Args(); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestFormatArgsForLog(t *testing.T) {
	got := FormatArgsForLog([]string{"-instance", "my inst", "", "-n"})
	if got != `-instance "my inst" "" -n` {
		t.Fatalf("got %s", got)
	}
}
