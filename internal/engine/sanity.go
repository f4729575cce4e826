package engine

import (
	"os"
)

// SanityReport describes runtime checks for the external executables.
type SanityReport struct {
	CLIFound    bool   `json:"cli_found"`
	CLIPath     string `json:"cli_path,omitempty"`
	EngineFound bool   `json:"engine_found"`
	EnginePath  string `json:"engine_path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SanityCheck validates that the query CLI and engine executable exist.
// It only resolves paths and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	cli, eng := m.paths()
	r := SanityReport{CLIPath: cli, EnginePath: eng}
	var problems []string
	if ok, msg := checkExecutable(cli, "query CLI"); ok {
		r.CLIFound = true
	} else {
		problems = append(problems, msg)
	}
	if ok, msg := checkExecutable(eng, "engine"); ok {
		r.EngineFound = true
	} else {
		problems = append(problems, msg)
	}
	for i, p := range problems {
		if i > 0 {
			r.Error += "; "
		}
		r.Error += p
	}
	return r
}

func checkExecutable(path, what string) (bool, string) {
	if path == "" {
		return false, what + " not found"
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false, what + ": " + err.Error()
	}
	if fi.IsDir() {
		return false, what + " path is a directory"
	}
	return true, ""
}
