package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	BackendUltralytics = "ultralytics"
	BackendCommand     = "command"

	DefaultOutputDir  = "android/app/src/main/assets"
	DefaultOutputName = "best.tflite"
	DefaultImgSize    = 640
	DefaultFormat     = "tflite"
	DefaultLogLevel   = "warn"

	DefaultNotifyTimeoutSeconds = 5
)

// DefaultCommand drives the ultralytics CLI when the command backend has no
// command configured. It prints no machine readable result, so the artifact
// is found with DefaultArtifactGlob.
var DefaultCommand = []string{
	"yolo", "export",
	"model={weights}",
	"format={format}",
	"imgsz={imgsz}",
	"int8={int8}",
}

// DefaultArtifactGlob matches the single file yolo export writes for the
// requested precision. The saved_model directory also keeps the float16 and
// older exports, so a wildcard would pick the wrong one.
const DefaultArtifactGlob = "{weights_dir}/{weights_stem}_saved_model/{weights_stem}_{precision}.tflite"

type ExporterConfig struct {
	Backend      string   `yaml:"backend" toml:"backend"`
	Format       string   `yaml:"format" toml:"format"`
	Python       string   `yaml:"python" toml:"python"`
	Command      []string `yaml:"command" toml:"command"`
	ResultPrefix string   `yaml:"resultPrefix" toml:"resultPrefix"`
	ArtifactGlob string   `yaml:"artifactGlob" toml:"artifactGlob"`
	Quiet        bool     `yaml:"quiet" toml:"quiet"`
}

type NotifyConfig struct {
	URL            string            `yaml:"url" toml:"url"`
	TimeoutSeconds int               `yaml:"timeoutSeconds" toml:"timeoutSeconds"`
	Headers        map[string]string `yaml:"headers" toml:"headers"`
}

// Config holds every option of one run. Weights only ever comes from the
// command line.
type Config struct {
	Weights     string         `yaml:"-" toml:"-"`
	OutputDir   string         `yaml:"outputDir" toml:"outputDir"`
	OutputName  string         `yaml:"outputName" toml:"outputName"`
	ImgSize     int            `yaml:"imgsz" toml:"imgsz"`
	Int8        bool           `yaml:"int8" toml:"int8"`
	LogLevel    string         `yaml:"logLevel" toml:"logLevel"`
	Verbose     bool           `yaml:"verbose" toml:"verbose"`
	MetricsFile string         `yaml:"metricsFile" toml:"metricsFile"`
	Exporter    ExporterConfig `yaml:"exporter" toml:"exporter"`
	Notify      NotifyConfig   `yaml:"notify" toml:"notify"`
}

func Default() Config {
	return Config{
		OutputDir:  DefaultOutputDir,
		OutputName: DefaultOutputName,
		ImgSize:    DefaultImgSize,
		LogLevel:   DefaultLogLevel,
		Exporter: ExporterConfig{
			Backend: BackendUltralytics,
			Format:  DefaultFormat,
		},
		Notify: NotifyConfig{
			TimeoutSeconds: DefaultNotifyTimeoutSeconds,
		},
	}
}

// Load reads a YAML or TOML file (chosen by extension) on top of Default().
// Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config file type %q, use .yaml, .yml or .toml", filepath.Ext(path))
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.fillEmpty()
	return cfg, nil
}

// fillEmpty restores defaults a config file blanked out with an explicit
// empty value.
func (c *Config) fillEmpty() {
	def := Default()
	if c.Exporter.Backend == "" {
		c.Exporter.Backend = def.Exporter.Backend
	}
	if c.Exporter.Format == "" {
		c.Exporter.Format = def.Exporter.Format
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Notify.TimeoutSeconds <= 0 {
		c.Notify.TimeoutSeconds = def.Notify.TimeoutSeconds
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Weights) == "" {
		return fmt.Errorf("weights path is required")
	}
	if c.ImgSize <= 0 {
		return fmt.Errorf("invalid imgsz %d: must be a positive integer", c.ImgSize)
	}
	if c.OutputName == "" {
		return fmt.Errorf("output name cannot be empty")
	}
	if strings.ContainsAny(c.OutputName, `/\`) || c.OutputName == "." || c.OutputName == ".." {
		return fmt.Errorf("invalid output name %q: must be a plain file name", c.OutputName)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.Exporter.Format != DefaultFormat {
		return fmt.Errorf("unsupported export format %q: only %s is produced", c.Exporter.Format, DefaultFormat)
	}
	switch c.Exporter.Backend {
	case BackendUltralytics, BackendCommand:
	default:
		return fmt.Errorf("unsupported exporter backend: %s, supported backends are: %s, %s",
			c.Exporter.Backend, BackendUltralytics, BackendCommand)
	}
	return nil
}
