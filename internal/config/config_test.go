package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, float32(0.4), cfg.Pipeline.ConfThreshold)
	assert.Equal(t, 1920, cfg.Pipeline.MaxImageSize)
	assert.Equal(t, int64(50), cfg.Server.MaxUploadMB)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Pipeline.ConfThreshold = 1.5 }},
		{"negative max image", func(c *Config) { c.Pipeline.MaxImageSize = -1 }},
		{"zero thumbnail", func(c *Config) { c.Pipeline.ThumbnailSize = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"zero upload cap", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"zero timeout", func(c *Config) { c.Server.TimeoutSec = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"rate limit enabled without rpm", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerMinute = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoaderDefaults(t *testing.T) {
	// Run from an empty directory so no stray config file is picked up.
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoaderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traybill.yaml")
	content := `
log_level: debug
server:
  port: 9000
  max_upload_mb: 25
pipeline:
  conf_threshold: 0.6
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int64(25), cfg.Server.MaxUploadMB)
	assert.Equal(t, float32(0.6), cfg.Pipeline.ConfThreshold)
	// Untouched keys keep defaults.
	assert.Equal(t, 1920, cfg.Pipeline.MaxImageSize)
}

func TestLoaderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traybill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -5\n"), 0o644))

	_, err := NewLoader().LoadWithFile(path)
	assert.Error(t, err)
}

func TestLoaderEnvOverride(t *testing.T) {
	t.Setenv("TRAYBILL_LOG_LEVEL", "warn")

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelsDir = "/opt/models"
	cfg.Pipeline.ConfThreshold = 0.55
	cfg.Pipeline.MaxImageSize = 1024
	cfg.Pipeline.ThumbnailSize = 200
	cfg.Pipeline.LabelsPath = "/opt/models/food_labels.txt"

	pc := cfg.ToPipelineConfig()
	assert.Equal(t, "/opt/models", pc.ModelsDir)
	assert.Equal(t, float32(0.55), pc.Localizer.ConfThreshold)
	assert.Equal(t, 1024, pc.Localizer.MaxImageSize)
	assert.Equal(t, 200, pc.ThumbnailMaxSide)
	assert.Equal(t, "/opt/models/food_labels.txt", pc.Classifier.LabelsPath)
	assert.Equal(t, filepath.Join("/opt/models", "yolov8n.onnx"), pc.Localizer.ModelPath)
}
