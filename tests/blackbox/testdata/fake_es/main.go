// fake_es imitates the Everything query CLI for blackbox tests. Probes
// always succeed, -exit succeeds, and searches export FAKE_ES_RESULTS
// (one path per line) to the -export-txt file.
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	args := os.Args[1:]
	if log := os.Getenv("FAKE_ES_LOG"); log != "" {
		if f, err := os.OpenFile(log, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			fmt.Fprintln(f, strings.Join(args, " "))
			f.Close()
		}
	}
	for i, a := range args {
		switch a {
		case "-exit":
			return
		case "-export-txt":
			if i+1 >= len(args) {
				os.Exit(2)
			}
			results := strings.ReplaceAll(os.Getenv("FAKE_ES_RESULTS"), ";", "\r\n")
			if err := os.WriteFile(args[i+1], []byte("\xEF\xBB\xBF"+results), 0o644); err != nil {
				os.Exit(3)
			}
			return
		}
	}
	if n := len(args); n >= 3 && args[n-3] == "-n" && args[n-1] == "*" {
		fmt.Println(`C:\pagefile.sys`)
		return
	}
	os.Exit(1)
}
