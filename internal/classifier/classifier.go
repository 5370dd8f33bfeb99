// Package classifier refines localized dish regions into concrete dish
// labels using a CNN classification model.
package classifier

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/traybill/traybill/internal/mempool"
	"github.com/traybill/traybill/internal/models"
	"github.com/traybill/traybill/internal/onnx"
)

// Config controls classification model loading.
type Config struct {
	ModelPath  string
	LabelsPath string
	InputSize  int
	NumThreads int
	GPU        onnx.GPUConfig
}

// DefaultConfig returns settings for the bundled dish classification model.
func DefaultConfig() Config {
	return Config{
		ModelPath:  models.ClassifierModelPath(""),
		LabelsPath: "",
		InputSize:  224,
		NumThreads: 0,
		GPU:        onnx.DefaultGPUConfig(),
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
	return nil
}

// UpdateModelPath re-resolves model and label paths against a models
// directory.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.ClassifierModelPath(modelsDir)
}

// Result is a single classification outcome.
type Result struct {
	Label      string
	Confidence float64
}

// Classifier wraps an ONNX classification session. Safe for concurrent use.
type Classifier struct {
	config     Config
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	labels     []string
	mu         sync.Mutex
}

// New loads the classification model. Labels come from the configured label
// file when set, otherwise the built-in list matching the bundled model.
func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	if err := models.ValidateExists(cfg.ModelPath); err != nil {
		return nil, err
	}

	labels := DefaultLabels()
	if cfg.LabelsPath != "" {
		loaded, err := LoadLabels(cfg.LabelsPath)
		if err != nil {
			return nil, err
		}
		labels = loaded
	}

	if err := onnx.Initialize(); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect classification model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected classification model signature: %d inputs, %d outputs",
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
		return nil, fmt.Errorf("failed to create classification session: %w", err)
	}

	slog.Info("classification model loaded",
		"path", cfg.ModelPath,
		"classes", len(labels),
		"input_size", cfg.InputSize)

	return &Classifier{
		config:     cfg,
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		labels:     labels,
	}, nil
}

// Classify runs the model on a dish crop and returns the top-1 label with
// its softmax probability. Errors here mean the caller should fall back to
// the coarse detection label.
func (c *Classifier) Classify(img image.Image) (Result, error) {
	if img == nil {
		return Result{}, fmt.Errorf("nil image")
	}

	start := time.Now()

	data, err := prepareInput(img, c.config.InputSize)
	if err != nil {
		return Result{}, err
	}
	defer mempool.PutFloat32(data)

	input, err := onnx.NewImageTensor(data, 1, 3, c.config.InputSize, c.config.InputSize)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	c.mu.Lock()
	err = c.session.Run([]ort.Value{input}, outputs)
	c.mu.Unlock()
	if err != nil {
		return Result{}, fmt.Errorf("classification inference failed: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	raw, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return Result{}, fmt.Errorf("unexpected classification output type %T", outputs[0])
	}

	result, err := decodeScores(raw.GetData(), c.labels)
	if err != nil {
		return Result{}, err
	}

	slog.Debug("classification complete",
		"label", result.Label,
		"confidence", result.Confidence,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// decodeScores picks the argmax class and maps it to a label. Indices past
// the label list fall back to the stringified index, so a mismatched label
// file degrades rather than fails.
func decodeScores(scores []float32, labels []string) (Result, error) {
	if len(scores) == 0 {
		return Result{}, fmt.Errorf("empty classification output")
	}
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	probs := softmax(scores)

	label := fmt.Sprintf("%d", best)
	if best < len(labels) {
		label = labels[best]
	}
	return Result{Label: label, Confidence: probs[best]}, nil
}

// Warmup runs inference on blank inputs before serving traffic.
func (c *Classifier) Warmup(iterations int) error {
	if iterations <= 0 {
		return nil
	}
	blank := image.NewRGBA(image.Rect(0, 0, c.config.InputSize, c.config.InputSize))
	for i := 0; i < iterations; i++ {
		if _, err := c.Classify(blank); err != nil {
			return fmt.Errorf("warmup iteration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Labels returns a copy of the class label list.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Close releases the underlying session.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy classification session: %w", err)
		}
		c.session = nil
	}
	return nil
}

// Info describes the loaded model for diagnostics.
func (c *Classifier) Info() map[string]interface{} {
	return map[string]interface{}{
		"model_path": c.config.ModelPath,
		"input_size": c.config.InputSize,
		"classes":    len(c.labels),
	}
}
