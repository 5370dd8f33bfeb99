package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configFileName = "traybill"
	envPrefix      = "TRAYBILL"
)

// Loader reads configuration from files and the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults, search paths, and environment
// binding registered.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "traybill"))
	}
	v.AddConfigPath("/etc/traybill")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Loader{v: v}
}

// Load reads the config file from the search paths (if one exists), applies
// environment overrides, and validates the result.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	} else {
		slog.Info("config file loaded", "path", l.v.ConfigFileUsed())
	}
	return l.unmarshal()
}

// LoadWithFile reads an explicit config file path.
func (l *Loader) LoadWithFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	slog.Info("config file loaded", "path", path)
	return l.unmarshal()
}

// Viper exposes the underlying instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("models_dir", d.ModelsDir)
	v.SetDefault("menu_path", d.MenuPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("verbose", d.Verbose)

	v.SetDefault("pipeline.conf_threshold", d.Pipeline.ConfThreshold)
	v.SetDefault("pipeline.max_image_size", d.Pipeline.MaxImageSize)
	v.SetDefault("pipeline.thumbnail_size", d.Pipeline.ThumbnailSize)
	v.SetDefault("pipeline.max_workers", d.Pipeline.MaxWorkers)
	v.SetDefault("pipeline.num_threads", d.Pipeline.NumThreads)
	v.SetDefault("pipeline.warmup_iterations", d.Pipeline.WarmupIterations)
	v.SetDefault("pipeline.labels_path", d.Pipeline.LabelsPath)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	v.SetDefault("server.shutdown_timeout_sec", d.Server.ShutdownTimeoutSec)
	v.SetDefault("server.rate_limit.enabled", d.Server.RateLimit.Enabled)
	v.SetDefault("server.rate_limit.requests_per_minute", d.Server.RateLimit.RequestsPerMinute)
	v.SetDefault("server.rate_limit.burst_size", d.Server.RateLimit.BurstSize)
	v.SetDefault("server.rate_limit.global_limit", d.Server.RateLimit.GlobalLimit)

	v.SetDefault("gpu.enabled", d.GPU.Enabled)
	v.SetDefault("gpu.device_id", d.GPU.DeviceID)
}
