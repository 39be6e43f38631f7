package exporter

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"TFLiteExport/config"
	iface "TFLiteExport/interface"
)

// Options are the pieces of an exporter that come from the caller rather than
// from configuration.
type Options struct {
	// Stdout and Stderr receive the child's output as it runs. Nil discards it.
	Stdout   io.Writer
	Stderr   io.Writer
	Observer iface.ProcessObserver
}

// ProcessError reports an exporter process that ran and exited non-zero.
type ProcessError struct {
	Program  string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("exporter %s exited with status %d", filepath.Base(e.Program), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// New builds the exporter selected by cfg.Backend.
func New(cfg config.ExporterConfig, opts Options) (iface.Exporter, error) {
	switch cfg.Backend {
	case config.BackendUltralytics, "":
		return NewUltralytics(cfg.Python, cfg.Quiet, opts), nil
	case config.BackendCommand:
		argv := cfg.Command
		glob := cfg.ArtifactGlob
		if len(argv) == 0 {
			argv = config.DefaultCommand
			if glob == "" {
				glob = config.DefaultArtifactGlob
			}
		}
		e := &CommandExporter{
			Argv:         append([]string(nil), argv...),
			ResultPrefix: cfg.ResultPrefix,
			ArtifactGlob: glob,
			Observer:     opts.Observer,
		}
		if !cfg.Quiet {
			e.Stdout = opts.Stdout
			e.Stderr = opts.Stderr
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported exporter backend: %s", cfg.Backend)
	}
}

// expand fills the argv/glob placeholders for one request.
func expand(templates []string, req iface.ExportRequest) []string {
	dir := filepath.Dir(req.Weights)
	stem := strings.TrimSuffix(filepath.Base(req.Weights), filepath.Ext(req.Weights))
	r := strings.NewReplacer(
		"{weights}", req.Weights,
		"{weights_dir}", dir,
		"{weights_stem}", stem,
		"{format}", req.Format,
		"{imgsz}", strconv.Itoa(req.ImgSize),
		"{int8}", strconv.FormatBool(req.Int8),
		"{precision}", precision(req.Int8),
	)
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = r.Replace(t)
	}
	return out
}

// precision names the file suffix yolo export uses for the quantization mode.
func precision(int8 bool) string {
	if int8 {
		return "int8"
	}
	return "float32"
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
