// Package opener hands a path to the desktop's default handler.
package opener

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Command returns the program and arguments that open path on goos.
func Command(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "explorer", []string{path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open launches the platform handler for path and returns once it has
// started. Explorer exits non-zero even on success, so only launch errors
// are reported.
func Open(path string) error {
	if path == "" {
		return fmt.Errorf("open: empty path")
	}
	name, args := Command(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
