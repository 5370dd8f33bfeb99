// Package localizer runs the dish detection model over tray photos and
// returns the image regions likely to contain a serving bowl.
package localizer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/traybill/traybill/internal/mempool"
	"github.com/traybill/traybill/internal/models"
	"github.com/traybill/traybill/internal/onnx"
	"github.com/traybill/traybill/internal/utils"
)

// Region is one localized dish candidate in original image coordinates.
type Region struct {
	Box         image.Rectangle `json:"box"`
	CoarseLabel string          `json:"coarse_label"`
	Confidence  float64         `json:"confidence"`
}

// Config controls detection model loading and postprocessing.
type Config struct {
	ModelPath     string
	InputSize     int
	ConfThreshold float32
	IoUThreshold  float32
	TargetClassID int
	CoarseLabel   string
	MaxImageSize  int
	NumThreads    int
	GPU           onnx.GPUConfig
}

// DefaultConfig returns settings tuned for the bundled detection model:
// COCO class 45 ("bowl") at a 0.4 confidence floor.
func DefaultConfig() Config {
	return Config{
		ModelPath:     models.LocalizerModelPath(""),
		InputSize:     640,
		ConfThreshold: 0.4,
		IoUThreshold:  0.45,
		TargetClassID: 45,
		CoarseLabel:   "bowl",
		MaxImageSize:  1920,
		NumThreads:    0,
		GPU:           onnx.DefaultGPUConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}
	if c.InputSize <= 0 {
		return fmt.Errorf("invalid input size %d", c.InputSize)
	}
	if c.ConfThreshold < 0 || c.ConfThreshold > 1 {
		return fmt.Errorf("confidence threshold %f outside [0,1]", c.ConfThreshold)
	}
	if c.IoUThreshold <= 0 || c.IoUThreshold > 1 {
		return fmt.Errorf("IoU threshold %f outside (0,1]", c.IoUThreshold)
	}
	if c.TargetClassID < 0 {
		return fmt.Errorf("invalid target class ID %d", c.TargetClassID)
	}
	return nil
}

// UpdateModelPath re-resolves the model path against a models directory.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.LocalizerModelPath(modelsDir)
}

// Localizer wraps an ONNX detection session. Safe for concurrent use; the
// session is serialized behind a mutex.
type Localizer struct {
	config     Config
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	mu         sync.Mutex
}

// New loads the detection model and prepares a session.
func New(cfg Config) (*Localizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid localizer config: %w", err)
	}
	if err := models.ValidateExists(cfg.ModelPath); err != nil {
		return nil, err
	}
	if err := onnx.Initialize(); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect detection model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected detection model signature: %d inputs, %d outputs",
			len(inputs), len(outputs))
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}
	if err := onnx.ConfigureSessionOptions(opts, cfg.GPU); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection session: %w", err)
	}

	slog.Info("detection model loaded",
		"path", cfg.ModelPath,
		"input", inputs[0].Name,
		"target_class", cfg.TargetClassID,
		"conf_threshold", cfg.ConfThreshold)

	return &Localizer{
		config:     cfg,
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}, nil
}

// Localize finds dish regions in the image. The result is in original image
// coordinates, clipped to the image bounds, with degenerate boxes dropped.
// An image with no dishes yields an empty slice and no error.
func (l *Localizer) Localize(ctx context.Context, img image.Image) ([]Region, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	lb, err := utils.Letterbox(img, l.config.InputSize)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare detection input: %w", err)
	}
	data, err := utils.NormalizeImageNCHW(lb.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize detection input: %w", err)
	}
	defer mempool.PutFloat32(data)

	input, err := onnx.NewImageTensor(data, 1, 3, l.config.InputSize, l.config.InputSize)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	l.mu.Lock()
	err = l.session.Run([]ort.Value{input}, outputs)
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("detection inference failed: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	raw, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected detection output type %T", outputs[0])
	}

	regions, err := decodeDetections(raw.GetData(), raw.GetShape(), decodeParams{
		scale:  lb.Scale,
		padX:   lb.PadX,
		padY:   lb.PadY,
		bounds: img.Bounds(),
		config: l.config,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("detection complete",
		"regions", len(regions),
		"duration_ms", time.Since(start).Milliseconds())
	return regions, nil
}

// Warmup runs inference on blank inputs to trigger lazy allocations before
// serving traffic.
func (l *Localizer) Warmup(iterations int) error {
	if iterations <= 0 {
		return nil
	}
	blank := image.NewRGBA(image.Rect(0, 0, l.config.InputSize, l.config.InputSize))
	for i := 0; i < iterations; i++ {
		if _, err := l.Localize(context.Background(), blank); err != nil {
			return fmt.Errorf("warmup iteration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Close releases the underlying session.
func (l *Localizer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session != nil {
		if err := l.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy detection session: %w", err)
		}
		l.session = nil
	}
	return nil
}

// Info describes the loaded model for diagnostics.
func (l *Localizer) Info() map[string]interface{} {
	return map[string]interface{}{
		"model_path":     l.config.ModelPath,
		"input_size":     l.config.InputSize,
		"conf_threshold": l.config.ConfThreshold,
		"target_class":   l.config.TargetClassID,
		"coarse_label":   l.config.CoarseLabel,
	}
}
