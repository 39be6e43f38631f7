package iface

import "context"

type Exporter interface {
	// Export converts the checkpoint and reports where the artifact landed.
	// It blocks until the conversion finishes.
	Export(ctx context.Context, req ExportRequest) (Artifacts, error)
	Name() string
}

// ProcessObserver is told about the exporter's child process.
type ProcessObserver interface {
	ProcessStarted(pid int)
	ProcessExited()
}
