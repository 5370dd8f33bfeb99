// Package models centralizes filenames and path resolution for the model
// and data assets shipped alongside the binary.
package models

import (
	"fmt"
	"os"
	"path/filepath"
)

// Asset filenames within the models directory.
const (
	LocalizerModel   = "yolov8n.onnx"
	ClassifierModel  = "food_cnn.onnx"
	ClassifierLabels = "food_labels.txt"
	MenuFile         = "menu_info.csv"
)

// EnvModelsDir overrides the models directory when set.
const EnvModelsDir = "TRAYBILL_MODELS_DIR"

// DefaultDir is the fallback models directory relative to the working
// directory or project root.
const DefaultDir = "models"

// Dir resolves the models directory: the explicit argument wins, then the
// environment variable, then a models/ directory at the project root (found
// via go.mod), then ./models.
func Dir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if dir := os.Getenv(EnvModelsDir); dir != "" {
		return dir
	}
	if root, err := projectRoot(); err == nil {
		candidate := filepath.Join(root, DefaultDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return DefaultDir
}

// Path joins the resolved models directory with an asset filename.
func Path(modelsDir, filename string) string {
	return filepath.Join(Dir(modelsDir), filename)
}

// LocalizerModelPath returns the detection model path.
func LocalizerModelPath(modelsDir string) string {
	return Path(modelsDir, LocalizerModel)
}

// ClassifierModelPath returns the classification model path.
func ClassifierModelPath(modelsDir string) string {
	return Path(modelsDir, ClassifierModel)
}

// LabelsPath returns the classifier label list path.
func LabelsPath(modelsDir string) string {
	return Path(modelsDir, ClassifierLabels)
}

// MenuPath returns the menu data file path.
func MenuPath(modelsDir string) string {
	return Path(modelsDir, MenuFile)
}

// ValidateExists checks that a model file is present and readable.
func ValidateExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model file not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", path)
	}
	return nil
}

func projectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
