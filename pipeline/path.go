package pipeline

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ResolvePath expands ~ and ~user, makes raw absolute and resolves symlinks
// along the longest prefix that exists. The path itself need not exist.
func ResolvePath(raw string) (string, error) {
	p, err := expandUser(raw)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}
	return evalExisting(abs), nil
}

func expandUser(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	name, rest := p[1:], ""
	if i := strings.IndexAny(name, `/\`); i >= 0 {
		name, rest = name[:i], name[i+1:]
	}
	var home string
	if name == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		home = h
	} else {
		u, err := user.Lookup(name)
		if err != nil {
			// unknown user: leave the path alone
			return p, nil
		}
		home = u.HomeDir
	}
	return filepath.Join(home, rest), nil
}

// evalExisting resolves symlinks in the deepest existing ancestor of abs and
// re-appends the missing tail.
func evalExisting(abs string) string {
	var tail []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, tail...)
			return filepath.Join(parts...)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return abs
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
