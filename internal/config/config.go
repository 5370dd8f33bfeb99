// Package config defines the application configuration and its viper-backed
// loader. Settings come from defaults, an optional config file, and
// TRAYBILL_-prefixed environment variables, in increasing precedence.
package config

import (
	"fmt"

	"github.com/traybill/traybill/internal/pipeline"
)

// Config is the root application configuration.
type Config struct {
	ModelsDir string `mapstructure:"models_dir"`
	MenuPath  string `mapstructure:"menu_path"`
	LogLevel  string `mapstructure:"log_level"`
	Verbose   bool   `mapstructure:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Server   ServerConfig   `mapstructure:"server"`
	GPU      GPUConfig      `mapstructure:"gpu"`
}

// PipelineConfig holds analysis settings.
type PipelineConfig struct {
	ConfThreshold    float32 `mapstructure:"conf_threshold"`
	MaxImageSize     int     `mapstructure:"max_image_size"`
	ThumbnailSize    int     `mapstructure:"thumbnail_size"`
	MaxWorkers       int     `mapstructure:"max_workers"`
	NumThreads       int     `mapstructure:"num_threads"`
	WarmupIterations int     `mapstructure:"warmup_iterations"`
	LabelsPath       string  `mapstructure:"labels_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	CORSOrigin         string `mapstructure:"cors_origin"`
	MaxUploadMB        int64  `mapstructure:"max_upload_mb"`
	TimeoutSec         int    `mapstructure:"timeout_sec"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds per-client and global request rates.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	BurstSize         int  `mapstructure:"burst_size"`
	GlobalLimit       int  `mapstructure:"global_limit"`
}

// GPUConfig toggles CUDA execution.
type GPUConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	DeviceID int  `mapstructure:"device_id"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ModelsDir: "",
		MenuPath:  "",
		LogLevel:  "info",
		Pipeline: PipelineConfig{
			ConfThreshold:    0.4,
			MaxImageSize:     1920,
			ThumbnailSize:    300,
			MaxWorkers:       0,
			NumThreads:       0,
			WarmupIterations: 1,
		},
		Server: ServerConfig{
			Host:               "localhost",
			Port:               8080,
			CORSOrigin:         "*",
			MaxUploadMB:        50,
			TimeoutSec:         120,
			ShutdownTimeoutSec: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				BurstSize:         10,
				GlobalLimit:       1000,
			},
		},
		GPU: GPUConfig{Enabled: false, DeviceID: 0},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Pipeline.ConfThreshold < 0 || c.Pipeline.ConfThreshold > 1 {
		return fmt.Errorf("pipeline.conf_threshold %f outside [0,1]", c.Pipeline.ConfThreshold)
	}
	if c.Pipeline.MaxImageSize <= 0 {
		return fmt.Errorf("pipeline.max_image_size must be positive")
	}
	if c.Pipeline.ThumbnailSize <= 0 {
		return fmt.Errorf("pipeline.thumbnail_size must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d outside (0,65535]", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("server.timeout_sec must be positive")
	}
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RequestsPerMinute <= 0 {
			return fmt.Errorf("server.rate_limit.requests_per_minute must be positive")
		}
		if c.Server.RateLimit.BurstSize <= 0 {
			return fmt.Errorf("server.rate_limit.burst_size must be positive")
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// ToPipelineConfig assembles the pipeline configuration from the settings.
func (c *Config) ToPipelineConfig() pipeline.Config {
	b := pipeline.NewBuilder().
		WithModelsDir(c.ModelsDir).
		WithMenuPath(c.MenuPath).
		WithConfidenceThreshold(c.Pipeline.ConfThreshold).
		WithMaxWorkers(c.Pipeline.MaxWorkers).
		WithThreads(c.Pipeline.NumThreads).
		WithWarmupIterations(c.Pipeline.WarmupIterations).
		WithGPU(c.GPU.Enabled, c.GPU.DeviceID)
	if c.Pipeline.LabelsPath != "" {
		b = b.WithLabelsPath(c.Pipeline.LabelsPath)
	}
	cfg := b.Config()
	cfg.Localizer.MaxImageSize = c.Pipeline.MaxImageSize
	cfg.ThumbnailMaxSide = c.Pipeline.ThumbnailSize
	return cfg
}
