// Package pipeline orchestrates the full tray analysis flow: localize dish
// regions, classify each one, reconcile labels, and price the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/traybill/traybill/internal/billing"
	"github.com/traybill/traybill/internal/catalog"
	"github.com/traybill/traybill/internal/classifier"
	"github.com/traybill/traybill/internal/localizer"
	"github.com/traybill/traybill/internal/models"
)

// RegionLocalizer finds dish candidate regions in a tray image.
type RegionLocalizer interface {
	Localize(ctx context.Context, img image.Image) ([]localizer.Region, error)
	Close() error
}

// DishClassifier refines a dish crop into a concrete label.
type DishClassifier interface {
	Classify(img image.Image) (classifier.Result, error)
	Close() error
}

// Config holds pipeline-wide settings plus the per-model configurations.
type Config struct {
	ModelsDir        string
	MenuPath         string
	Localizer        localizer.Config
	Classifier       classifier.Config
	MaxWorkers       int
	WarmupIterations int
	ThumbnailMaxSide int
}

// DefaultConfig returns a pipeline configuration with model defaults.
func DefaultConfig() Config {
	return Config{
		Localizer:        localizer.DefaultConfig(),
		Classifier:       classifier.DefaultConfig(),
		MaxWorkers:       0, // auto
		WarmupIterations: 1,
		ThumbnailMaxSide: 300,
	}
}

// Validate checks the combined configuration.
func (c Config) Validate() error {
	if err := c.Localizer.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("invalid worker count %d", c.MaxWorkers)
	}
	if c.ThumbnailMaxSide <= 0 {
		return fmt.Errorf("invalid thumbnail size %d", c.ThumbnailMaxSide)
	}
	return nil
}

// Builder assembles a pipeline configuration fluently.
type Builder struct {
	config Config
}

// NewBuilder starts from the default configuration.
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// NewBuilderFromConfig starts from an existing configuration.
func NewBuilderFromConfig(cfg Config) *Builder {
	return &Builder{config: cfg}
}

// WithModelsDir points all model assets at a directory.
func (b *Builder) WithModelsDir(dir string) *Builder {
	b.config.ModelsDir = dir
	b.config.Localizer.UpdateModelPath(dir)
	b.config.Classifier.UpdateModelPath(dir)
	return b
}

// WithMenuPath sets an explicit menu file.
func (b *Builder) WithMenuPath(path string) *Builder {
	b.config.MenuPath = path
	return b
}

// WithLocalizerModelPath overrides the detection model path.
func (b *Builder) WithLocalizerModelPath(path string) *Builder {
	b.config.Localizer.ModelPath = path
	return b
}

// WithClassifierModelPath overrides the classification model path.
func (b *Builder) WithClassifierModelPath(path string) *Builder {
	b.config.Classifier.ModelPath = path
	return b
}

// WithLabelsPath sets the classifier label file.
func (b *Builder) WithLabelsPath(path string) *Builder {
	b.config.Classifier.LabelsPath = path
	return b
}

// WithConfidenceThreshold sets the detection confidence floor.
func (b *Builder) WithConfidenceThreshold(t float32) *Builder {
	b.config.Localizer.ConfThreshold = t
	return b
}

// WithMaxWorkers caps the per-request classification worker pool.
func (b *Builder) WithMaxWorkers(n int) *Builder {
	b.config.MaxWorkers = n
	return b
}

// WithThreads sets intra-op thread counts for both models.
func (b *Builder) WithThreads(n int) *Builder {
	b.config.Localizer.NumThreads = n
	b.config.Classifier.NumThreads = n
	return b
}

// WithWarmupIterations sets how many blank inferences run at startup.
func (b *Builder) WithWarmupIterations(n int) *Builder {
	b.config.WarmupIterations = n
	return b
}

// WithGPU toggles CUDA execution for both models.
func (b *Builder) WithGPU(enabled bool, deviceID int) *Builder {
	b.config.Localizer.GPU.Enabled = enabled
	b.config.Localizer.GPU.DeviceID = deviceID
	b.config.Classifier.GPU.Enabled = enabled
	b.config.Classifier.GPU.DeviceID = deviceID
	return b
}

// Config returns a copy of the assembled configuration.
func (b *Builder) Config() Config {
	return b.config
}

// Build validates the configuration, loads both models, the menu catalog,
// and runs warmup.
func (b *Builder) Build() (*Pipeline, error) {
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	menuPath := cfg.MenuPath
	if menuPath == "" {
		menuPath = models.MenuPath(cfg.ModelsDir)
	}
	cat := catalog.LoadOrDefault(menuPath)

	loc, err := localizer.New(cfg.Localizer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize localizer: %w", err)
	}
	cls, err := classifier.New(cfg.Classifier)
	if err != nil {
		_ = loc.Close()
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}

	if cfg.WarmupIterations > 0 {
		if err := loc.Warmup(cfg.WarmupIterations); err != nil {
			slog.Warn("localizer warmup failed", "error", err)
		}
		if err := cls.Warmup(cfg.WarmupIterations); err != nil {
			slog.Warn("classifier warmup failed", "error", err)
		}
	}

	p := &Pipeline{
		Localizer:  loc,
		Classifier: cls,
		Catalog:    cat,
		Biller:     billing.NewBiller(cat),
		config:     cfg,
	}
	slog.Info("pipeline ready",
		"menu_entries", cat.Len(),
		"max_workers", cfg.MaxWorkers)
	return p, nil
}

// Pipeline runs tray analysis end to end. Fields are exported so tests can
// assemble a pipeline from fakes.
type Pipeline struct {
	Localizer  RegionLocalizer
	Classifier DishClassifier
	Catalog    *catalog.Catalog
	Biller     *billing.Biller
	config     Config
}

// Close releases both model sessions.
func (p *Pipeline) Close() error {
	var errs []error
	if p.Localizer != nil {
		if err := p.Localizer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Classifier != nil {
		if err := p.Classifier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Info reports pipeline diagnostics.
func (p *Pipeline) Info() map[string]interface{} {
	info := map[string]interface{}{
		"menu_entries": p.Catalog.Len(),
		"max_workers":  p.config.MaxWorkers,
		"max_image_px": p.config.Localizer.MaxImageSize,
		"thumbnail_px": p.config.ThumbnailMaxSide,
	}
	type infoProvider interface{ Info() map[string]interface{} }
	if ip, ok := p.Localizer.(infoProvider); ok {
		info["localizer"] = ip.Info()
	}
	if ip, ok := p.Classifier.(infoProvider); ok {
		info["classifier"] = ip.Info()
	}
	return info
}
