package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "android/app/src/main/assets", cfg.OutputDir)
	assert.Equal(t, "best.tflite", cfg.OutputName)
	assert.Equal(t, 640, cfg.ImgSize)
	assert.False(t, cfg.Int8)
	assert.Equal(t, BackendUltralytics, cfg.Exporter.Backend)
	assert.Equal(t, "tflite", cfg.Exporter.Format)
	assert.Equal(t, 5, cfg.Notify.TimeoutSeconds)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "export.yaml", `
outputDir: /tmp/assets
imgsz: 320
int8: true
metricsFile: /tmp/export.prom
exporter:
  backend: command
  command: ["sh", "stub.sh", "{weights}"]
  resultPrefix: "RESULT="
notify:
  url: http://localhost:9000/hook
  headers:
    X-Token: abc
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/assets", cfg.OutputDir)
	assert.Equal(t, "best.tflite", cfg.OutputName, "missing keys keep defaults")
	assert.Equal(t, 320, cfg.ImgSize)
	assert.True(t, cfg.Int8)
	assert.Equal(t, "/tmp/export.prom", cfg.MetricsFile)
	assert.Equal(t, BackendCommand, cfg.Exporter.Backend)
	assert.Equal(t, "tflite", cfg.Exporter.Format)
	assert.Equal(t, []string{"sh", "stub.sh", "{weights}"}, cfg.Exporter.Command)
	assert.Equal(t, "RESULT=", cfg.Exporter.ResultPrefix)
	assert.Equal(t, "http://localhost:9000/hook", cfg.Notify.URL)
	assert.Equal(t, 5, cfg.Notify.TimeoutSeconds)
	assert.Equal(t, map[string]string{"X-Token": "abc"}, cfg.Notify.Headers)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "export.toml", `
outputName = "detector.tflite"
imgsz = 416

[exporter]
backend = "ultralytics"
python = "/opt/venv/bin/python"
quiet = true

[notify]
timeoutSeconds = 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "detector.tflite", cfg.OutputName)
	assert.Equal(t, 416, cfg.ImgSize)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, "/opt/venv/bin/python", cfg.Exporter.Python)
	assert.True(t, cfg.Exporter.Quiet)
	assert.Equal(t, 10, cfg.Notify.TimeoutSeconds)
}

func TestLoad_EmptyValuesFallBack(t *testing.T) {
	path := writeConfig(t, "export.yml", "exporter:\n  backend: \"\"\nlogLevel: \"\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendUltralytics, cfg.Exporter.Backend)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "export.json", "{}"))
	assert.ErrorContains(t, err, "unsupported config file type")

	_, err = Load(writeConfig(t, "bad.yaml", "imgsz: [not, an, int]"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "bad.toml", "imgsz = \"big\""))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Weights = "model.pt"
		return cfg
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cases := map[string]func(*Config){
		"weights required":    func(c *Config) { c.Weights = " " },
		"imgsz zero":          func(c *Config) { c.ImgSize = 0 },
		"imgsz negative":      func(c *Config) { c.ImgSize = -32 },
		"empty output name":   func(c *Config) { c.OutputName = "" },
		"output name is path": func(c *Config) { c.OutputName = "sub/best.tflite" },
		"output name dotdot":  func(c *Config) { c.OutputName = ".." },
		"empty output dir":    func(c *Config) { c.OutputDir = "" },
		"unknown backend":     func(c *Config) { c.Exporter.Backend = "onnx" },
		"non tflite format":   func(c *Config) { c.Exporter.Format = "onnx" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "export.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().OutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultCommand, cfg.Exporter.Command)
	assert.Equal(t, DefaultArtifactGlob, cfg.Exporter.ArtifactGlob)

	cfg.Weights = "best.pt"
	assert.NoError(t, cfg.Validate())
}
