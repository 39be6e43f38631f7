package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrInputNotFound         = errors.New("weights not found")
	ErrNoArtifactProduced    = errors.New("no export artifact returned by exporter")
	ErrArtifactNotFound      = errors.New("exported artifact not found")
	ErrDestinationUnwritable = errors.New("destination not writable")
)

// Request is one export, built from configuration.
type Request struct {
	Weights    string
	OutputDir  string
	OutputName string
	ImgSize    int
	Int8       bool
	Format     string
}

// Result holds the absolute paths that get reported.
type Result struct {
	Artifact    string
	Destination string
}

// Error ties a failure kind to the path it concerns. errors.Is matches both
// the kind and the underlying OS error.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Err == nil:
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	case e.Path == "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
