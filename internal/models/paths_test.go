package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirExplicitWins(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	assert.Equal(t, "/explicit", Dir("/explicit"))
}

func TestDirEnvOverride(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	assert.Equal(t, "/env/models", Dir(""))
}

func TestAssetPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/m", LocalizerModel), LocalizerModelPath("/m"))
	assert.Equal(t, filepath.Join("/m", ClassifierModel), ClassifierModelPath("/m"))
	assert.Equal(t, filepath.Join("/m", ClassifierLabels), LabelsPath("/m"))
	assert.Equal(t, filepath.Join("/m", MenuFile), MenuPath("/m"))
}

func TestValidateExists(t *testing.T) {
	dir := t.TempDir()

	err := ValidateExists(filepath.Join(dir, "missing.onnx"))
	assert.Error(t, err)

	err = ValidateExists(dir)
	assert.Error(t, err, "directories are not model files")

	path := filepath.Join(dir, "model.onnx")
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
	assert.NoError(t, ValidateExists(path))
}
