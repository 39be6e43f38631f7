package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TFLiteExport/config"
	"TFLiteExport/exporter"
	"TFLiteExport/logger"
	"TFLiteExport/monitor"
	"TFLiteExport/notify"
	"TFLiteExport/pipeline"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flagValues struct {
	weights     string
	outputDir   string
	outputName  string
	imgSize     int
	int8        bool
	configFile  string
	backend     string
	python      string
	metricsFile string
	verbose     bool
	quiet       bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var fv flagValues
	cmd := &cobra.Command{
		Use:   "tflite-export --weights <model.pt> [flags]",
		Short: "Export a YOLO .pt model to .tflite and copy it into the app assets",
		Long: `Export a YOLO .pt checkpoint to a .tflite model with Ultralytics and copy the
result into a Flutter/Android asset directory.

Examples:
  # Export with defaults into android/app/src/main/assets/best.tflite
  tflite-export --weights runs/detect/train/weights/best.pt

  # Smaller input size, INT8 quantized, custom destination
  tflite-export --weights best.pt --imgsz 320 --int8 --output-dir /tmp/assets --output-name detector.tflite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, fv)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cfg, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&fv.weights, "weights", "", "Path to .pt weights file (required)")
	cmd.Flags().StringVar(&fv.outputDir, "output-dir", config.DefaultOutputDir, "Directory where the exported .tflite will be copied")
	cmd.Flags().StringVar(&fv.outputName, "output-name", config.DefaultOutputName, "Output .tflite filename in output-dir (a plain file name, no directories)")
	cmd.Flags().IntVar(&fv.imgSize, "imgsz", config.DefaultImgSize, "Image size used during export")
	cmd.Flags().BoolVar(&fv.int8, "int8", false, "Export an INT8 quantized model")
	cmd.Flags().StringVar(&fv.configFile, "config", "", "YAML or TOML config file")
	cmd.Flags().StringVar(&fv.backend, "backend", config.BackendUltralytics, "Exporter backend: ultralytics or command")
	cmd.Flags().StringVar(&fv.python, "python", "", "Python interpreter for the ultralytics backend")
	cmd.Flags().StringVar(&fv.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path (written for failed runs too)")
	cmd.Flags().BoolVarP(&fv.verbose, "verbose", "v", false, "Verbose (debug) logging")
	cmd.Flags().BoolVarP(&fv.quiet, "quiet", "q", false, "Do not echo exporter output")
	_ = cmd.MarkFlagRequired("weights")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// buildConfig layers defaults, the config file and explicitly set flags.
func buildConfig(cmd *cobra.Command, fv flagValues) (config.Config, error) {
	cfg := config.Default()
	if fv.configFile != "" {
		loaded, err := config.Load(fv.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfg.Weights = fv.weights

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = fv.outputDir
	}
	if flags.Changed("output-name") {
		cfg.OutputName = fv.outputName
	}
	if flags.Changed("imgsz") {
		cfg.ImgSize = fv.imgSize
	}
	if flags.Changed("int8") {
		cfg.Int8 = fv.int8
	}
	if flags.Changed("backend") {
		cfg.Exporter.Backend = fv.backend
	}
	if flags.Changed("python") {
		cfg.Exporter.Python = fv.python
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = fv.metricsFile
	}
	if flags.Changed("verbose") {
		cfg.Verbose = fv.verbose
	}
	if flags.Changed("quiet") {
		cfg.Exporter.Quiet = fv.quiet
	}
	return cfg, cfg.Validate()
}

func runExport(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	var err error
	if cfg.Verbose {
		err = logger.InitDevelopment()
	} else {
		err = logger.InitProduction(cfg.LogLevel)
	}
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	runID := uuid.NewString()
	log := logger.Log().With(zap.String("run", runID))
	mon := monitor.New(cfg.OutputName, cfg.ImgSize, cfg.Int8)

	exp, err := exporter.New(cfg.Exporter, exporter.Options{
		Stdout:   stderr,
		Stderr:   stderr,
		Observer: mon,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := pipeline.New(exp, stdout).Run(ctx, pipeline.Request{
		Weights:    cfg.Weights,
		OutputDir:  cfg.OutputDir,
		OutputName: cfg.OutputName,
		ImgSize:    cfg.ImgSize,
		Int8:       cfg.Int8,
		Format:     cfg.Exporter.Format,
	})
	elapsed := time.Since(start)

	var size int64
	var digest string
	if err == nil {
		var derr error
		size, digest, derr = notify.FileDigest(res.Destination)
		if derr != nil {
			log.Warn("cannot read copied artifact", zap.String("destination", res.Destination), zap.Error(derr))
		}
	}
	mon.ObserveRun(elapsed, size, err)
	if cfg.MetricsFile != "" {
		if werr := mon.WriteTextfile(cfg.MetricsFile); werr != nil {
			log.Warn("failed to write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(werr))
		}
	}
	if err != nil {
		log.Debug("export failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return err
	}

	if client := notify.New(cfg.Notify); client != nil {
		report := notify.Report{
			Id:          runID,
			Weights:     cfg.Weights,
			Artifact:    res.Artifact,
			Destination: res.Destination,
			ImgSize:     cfg.ImgSize,
			Int8:        cfg.Int8,
			Bytes:       size,
			SHA256:      digest,
			DurationMs:  elapsed.Milliseconds(),
			TimeStamp:   time.Now().Unix(),
		}
		if nerr := client.Send(ctx, report); nerr != nil {
			log.Warn("export succeeded but notification failed", zap.Error(nerr))
		}
	}
	log.Info("export finished", zap.Duration("elapsed", elapsed), zap.Int64("bytes", size))
	return nil
}

// exitCode mirrors a failed exporter process's status; everything else is 1.
func exitCode(err error) int {
	var perr *exporter.ProcessError
	if errors.As(err, &perr) && perr.ExitCode > 0 {
		return perr.ExitCode
	}
	return 1
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
