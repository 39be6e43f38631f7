package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	iface "TFLiteExport/interface"
	"TFLiteExport/logger"

	"github.com/otiai10/copy"
	"go.uber.org/zap"
)

// Orchestrator runs one export end to end: check the weights, delegate to
// the exporter, pick the artifact, copy it into the asset directory and
// report both paths on Out.
type Orchestrator struct {
	Exporter iface.Exporter
	Out      io.Writer
}

func New(exp iface.Exporter, out io.Writer) *Orchestrator {
	return &Orchestrator{Exporter: exp, Out: out}
}

// Run stops at the first failure. Exporter errors come back untouched; every
// other failure is an *Error whose Kind is one of the Err* values.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	log := logger.Log().With(zap.String("exporter", o.Exporter.Name()))

	weights, err := ResolvePath(req.Weights)
	if err != nil {
		return Result{}, &Error{Kind: ErrInputNotFound, Path: req.Weights, Err: err}
	}
	if _, err := os.Stat(weights); err != nil {
		if os.IsNotExist(err) {
			return Result{}, &Error{Kind: ErrInputNotFound, Path: weights}
		}
		return Result{}, &Error{Kind: ErrInputNotFound, Path: weights, Err: err}
	}

	log.Info("exporting",
		zap.String("weights", weights),
		zap.String("format", req.Format),
		zap.Int("imgsz", req.ImgSize),
		zap.Bool("int8", req.Int8))
	artifacts, err := o.Exporter.Export(ctx, iface.ExportRequest{
		Weights: weights,
		Format:  req.Format,
		ImgSize: req.ImgSize,
		Int8:    req.Int8,
	})
	if err != nil {
		return Result{}, err
	}

	candidates := artifacts.Candidates()
	chosen, ok := artifacts.First()
	if !ok {
		return Result{}, &Error{Kind: ErrNoArtifactProduced}
	}
	if len(candidates) > 1 {
		log.Warn("exporter returned several artifacts, using the first",
			zap.Int("count", len(candidates)),
			zap.String("chosen", chosen),
			zap.Strings("candidates", candidates))
	}

	artifact, err := ResolvePath(chosen)
	if err != nil {
		return Result{}, &Error{Kind: ErrArtifactNotFound, Path: chosen, Err: err}
	}
	info, err := os.Stat(artifact)
	switch {
	case os.IsNotExist(err):
		return Result{}, &Error{Kind: ErrArtifactNotFound, Path: artifact}
	case err != nil:
		return Result{}, &Error{Kind: ErrArtifactNotFound, Path: artifact, Err: err}
	case !info.Mode().IsRegular():
		return Result{}, &Error{Kind: ErrArtifactNotFound, Path: artifact, Err: fmt.Errorf("not a regular file")}
	}

	outDir, err := ResolvePath(req.OutputDir)
	if err != nil {
		return Result{}, &Error{Kind: ErrDestinationUnwritable, Path: req.OutputDir, Err: err}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, &Error{Kind: ErrDestinationUnwritable, Path: outDir, Err: err}
	}
	dest := filepath.Join(outDir, req.OutputName)
	if err := copyArtifact(artifact, dest); err != nil {
		return Result{}, &Error{Kind: ErrDestinationUnwritable, Path: dest, Err: err}
	}
	log.Info("copied artifact", zap.String("artifact", artifact), zap.String("destination", dest))

	res := Result{Artifact: artifact, Destination: dest}
	if o.Out != nil {
		fmt.Fprintf(o.Out, "Exported: %s\n", res.Artifact)
		fmt.Fprintf(o.Out, "Copied to: %s\n", res.Destination)
	}
	return res, nil
}

// copyArtifact overwrites dest with src, keeping permissions and times.
func copyArtifact(src, dest string) error {
	return copy.Copy(src, dest, copy.Options{
		PreserveTimes: true,
		Sync:          true,
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Deep
		},
	})
}
