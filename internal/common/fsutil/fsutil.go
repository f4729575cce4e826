package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/.config/findd
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// IsFile reports whether path exists and is not a directory.
func IsFile(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// NormalizePath returns a cleaned, comparable form of path. On Windows the
// result is lower-cased and uses backslashes, so two spellings of the same
// executable compare equal. Empty input stays empty.
func NormalizePath(path string) string {
	path = strings.TrimSpace(strings.Trim(path, `"`))
	if path == "" {
		return ""
	}
	path = filepath.Clean(path)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(strings.ReplaceAll(path, "/", `\`))
	}
	return path
}

// FormatPathForLog cleans path for display; empty stays empty.
func FormatPathForLog(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

// AppBaseDir returns the directory holding the running executable, or the
// working directory when the executable path cannot be determined.
func AppBaseDir() string {
	exe, err := os.Executable()
	if err == nil {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// HasPathPrefix reports whether path lies inside root after normalization.
func HasPathPrefix(path, root string) bool {
	p := NormalizePath(path)
	r := NormalizePath(root)
	if p == "" || r == "" {
		return false
	}
	sep := string(filepath.Separator)
	if runtime.GOOS == "windows" {
		sep = `\`
	}
	return strings.HasPrefix(p, strings.TrimSuffix(r, sep)+sep)
}
