package onnx

import (
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
)

// GPUConfig controls CUDA execution provider settings for a session.
type GPUConfig struct {
	Enabled             bool
	DeviceID            int
	MemoryLimitBytes    uint64
	ArenaExtendStrategy string
}

// DefaultGPUConfig returns CPU-only defaults with sane CUDA settings for
// when GPU execution is switched on.
func DefaultGPUConfig() GPUConfig {
	return GPUConfig{
		Enabled:             false,
		DeviceID:            0,
		MemoryLimitBytes:    0, // no limit
		ArenaExtendStrategy: "kNextPowerOfTwo",
	}
}

// Validate checks the configuration for obviously invalid values.
func (c GPUConfig) Validate() error {
	if c.DeviceID < 0 {
		return fmt.Errorf("invalid GPU device ID: %d", c.DeviceID)
	}
	switch c.ArenaExtendStrategy {
	case "", "kNextPowerOfTwo", "kSameAsRequested":
	default:
		return fmt.Errorf("invalid arena extend strategy: %s", c.ArenaExtendStrategy)
	}
	return nil
}

// ConfigureSessionOptions appends the CUDA execution provider to the given
// session options when GPU execution is enabled. Falls back to CPU with a
// warning when the provider cannot be configured.
func ConfigureSessionOptions(opts *ort.SessionOptions, cfg GPUConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		slog.Warn("CUDA provider unavailable, falling back to CPU", "error", err)
		return nil
	}
	defer func() { _ = cudaOpts.Destroy() }()

	settings := map[string]string{
		"device_id": fmt.Sprintf("%d", cfg.DeviceID),
	}
	if cfg.MemoryLimitBytes > 0 {
		settings["gpu_mem_limit"] = fmt.Sprintf("%d", cfg.MemoryLimitBytes)
	}
	if cfg.ArenaExtendStrategy != "" {
		settings["arena_extend_strategy"] = cfg.ArenaExtendStrategy
	}
	if err := cudaOpts.Update(settings); err != nil {
		slog.Warn("failed to apply CUDA provider settings, falling back to CPU", "error", err)
		return nil
	}

	if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		slog.Warn("failed to append CUDA execution provider, falling back to CPU", "error", err)
		return nil
	}

	slog.Info("CUDA execution provider enabled", "device_id", cfg.DeviceID)
	return nil
}
