package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"sync"

	iface "TFLiteExport/interface"
	"TFLiteExport/logger"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// CommandExporter runs an external program and reads the artifact location
// from its stdout, or from ArtifactGlob when the program prints none.
type CommandExporter struct {
	Argv         []string
	ResultPrefix string
	ArtifactGlob string
	Dir          string
	Env          []string
	Stdout       io.Writer
	Stderr       io.Writer
	Observer     iface.ProcessObserver
}

func (e *CommandExporter) Name() string {
	if len(e.Argv) == 0 {
		return "command"
	}
	return "command:" + e.Argv[0]
}

func (e *CommandExporter) Export(ctx context.Context, req iface.ExportRequest) (iface.Artifacts, error) {
	if len(e.Argv) == 0 {
		return iface.Artifacts{}, errors.New("exporter command is empty")
	}
	argv := expand(e.Argv, req)
	stdout, err := e.run(ctx, argv)
	if err != nil {
		return iface.Artifacts{}, err
	}

	if artifacts, ok := resultFromOutput(stdout, e.ResultPrefix); ok {
		return artifacts, nil
	}
	if e.ArtifactGlob == "" {
		logger.Log().Warn("exporter printed no result", zap.String("program", argv[0]))
		return iface.Artifacts{}, nil
	}
	pattern := expand([]string{e.ArtifactGlob}, req)[0]
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return iface.Artifacts{}, fmt.Errorf("invalid artifact glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	logger.Log().Debug("artifact glob", zap.String("pattern", pattern), zap.Strings("matches", matches))
	return iface.ArtifactList(matches...), nil
}

// run starts argv, waits for it and returns what it wrote to stdout.
func (e *CommandExporter) run(ctx context.Context, argv []string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = e.Env
	}
	echoOut, echoErr := writerOrDiscard(e.Stdout), writerOrDiscard(e.Stderr)
	if e.Stdout != nil && e.Stdout == e.Stderr {
		shared := &lockedWriter{w: e.Stdout}
		echoOut, echoErr = shared, shared
	}
	cmd.Stdout = io.MultiWriter(&stdout, echoOut)
	cmd.Stderr = io.MultiWriter(&stderr, echoErr)

	logger.Log().Debug("starting exporter", zap.Strings("argv", argv))
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start exporter %s: %w", argv[0], err)
	}
	if e.Observer != nil {
		e.Observer.ProcessStarted(cmd.Process.Pid)
	}
	err := cmd.Wait()
	if e.Observer != nil {
		e.Observer.ProcessExited()
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("export interrupted: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ProcessError{
				Program:  argv[0],
				ExitCode: exitErr.ExitCode(),
				Stderr:   lastLine(stderr.Bytes()),
			}
		}
		return "", fmt.Errorf("exporter %s failed: %w", argv[0], err)
	}
	return stdout.String(), nil
}

// lockedWriter serializes the stdout and stderr copiers when both echo to
// the same writer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
