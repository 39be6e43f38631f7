package exporter

import (
	"context"

	iface "TFLiteExport/interface"
	"TFLiteExport/logger"

	"go.uber.org/zap"
)

const ultralyticsResultPrefix = "__tflite_export_result__="

// ultralyticsHelper is passed to "python -c". Arguments: weights, format,
// imgsz, int8 ("true"/"false"). The last stdout line carries the export
// return value as JSON behind ultralyticsResultPrefix.
const ultralyticsHelper = `import json
import sys

from ultralytics import YOLO

weights, fmt, imgsz, int8 = sys.argv[1], sys.argv[2], int(sys.argv[3]), sys.argv[4] == "true"
exported = YOLO(weights).export(format=fmt, imgsz=imgsz, int8=int8)
if isinstance(exported, (list, tuple)):
    exported = [str(p) for p in exported]
elif exported is not None:
    exported = str(exported)
sys.stderr.flush()
print("` + ultralyticsResultPrefix + `" + json.dumps(exported), flush=True)
`

// UltralyticsExporter calls YOLO(...).export in a Python interpreter. The
// interpreter is located on the first Export, so a missing Python does not
// mask a missing checkpoint.
type UltralyticsExporter struct {
	// Preferred is the configured interpreter; empty means search.
	Preferred string
	// Python is the interpreter actually used, set by Export.
	Python string

	quiet bool
	opts  Options
}

func NewUltralytics(python string, quiet bool, opts Options) *UltralyticsExporter {
	return &UltralyticsExporter{Preferred: python, quiet: quiet, opts: opts}
}

func (u *UltralyticsExporter) Name() string {
	return "ultralytics"
}

func (u *UltralyticsExporter) Export(ctx context.Context, req iface.ExportRequest) (iface.Artifacts, error) {
	if u.Python == "" {
		interp, err := FindPython(u.Preferred)
		if err != nil {
			return iface.Artifacts{}, err
		}
		u.Python = interp
		logger.Log().Debug("using python", zap.String("python", interp))
	}
	cmd := &CommandExporter{
		Argv:         []string{u.Python, "-c", ultralyticsHelper, "{weights}", "{format}", "{imgsz}", "{int8}"},
		ResultPrefix: ultralyticsResultPrefix,
		Observer:     u.opts.Observer,
	}
	if !u.quiet {
		cmd.Stdout = u.opts.Stdout
		cmd.Stderr = u.opts.Stderr
	}
	return cmd.Export(ctx, req)
}
