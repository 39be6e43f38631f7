package exporter

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// EnvPython overrides every other way of choosing the interpreter.
const EnvPython = "TFLITE_EXPORT_PYTHON"

const maxAscend = 10

var venvDirs = []string{".venv", "venv"}

// FindPython picks the interpreter that runs the ultralytics helper. Order:
// $TFLITE_EXPORT_PYTHON, the configured interpreter, $VIRTUAL_ENV, a .venv or
// venv directory in the working directory or one of its parents, then
// python3/python on PATH.
func FindPython(preferred string) (string, error) {
	if p := os.Getenv(EnvPython); p != "" {
		if path, ok := lookExecutable(p); ok {
			return path, nil
		}
		return "", fmt.Errorf("%s set but not executable: %s", EnvPython, p)
	}
	if preferred != "" {
		if path, ok := lookExecutable(preferred); ok {
			return path, nil
		}
		return "", fmt.Errorf("python interpreter not found: %s", preferred)
	}

	var tried []string
	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		p := venvPython(venv)
		tried = append(tried, p)
		if fileExists(p) {
			return p, nil
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		cur := cwd
		for i := 0; i < maxAscend; i++ {
			for _, d := range venvDirs {
				p := venvPython(filepath.Join(cur, d))
				tried = append(tried, p)
				if fileExists(p) {
					return p, nil
				}
			}
			parent := filepath.Dir(cur)
			if parent == cur {
				break
			}
			cur = parent
		}
	}

	for _, name := range []string{"python3", "python"} {
		tried = append(tried, "$PATH/"+name)
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}

	diag := "Tried locations:\n"
	for _, t := range tried {
		diag += "  - " + t + "\n"
	}
	return "", fmt.Errorf("python interpreter not found, set %s or --python. %s", EnvPython, diag)
}

func venvPython(venv string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venv, "Scripts", "python.exe")
	}
	return filepath.Join(venv, "bin", "python")
}

// lookExecutable accepts either a path or a bare program name.
func lookExecutable(p string) (string, bool) {
	if strings.ContainsAny(p, `/\`) {
		if !fileExists(p) {
			return "", false
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return p, true
		}
		return abs, true
	}
	path, err := exec.LookPath(p)
	if err != nil {
		return "", false
	}
	return path, true
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
