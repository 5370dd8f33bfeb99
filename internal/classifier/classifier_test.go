package classifier

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traybill/traybill/internal/mempool"
)

func TestDefaultLabels(t *testing.T) {
	labels := DefaultLabels()
	assert.Len(t, labels, 41)
	assert.Equal(t, "banh mi", labels[0])
	assert.Equal(t, "com", labels[14])
	assert.Equal(t, "trung luoc", labels[40])

	labels[0] = "changed"
	assert.Equal(t, "banh mi", DefaultLabels()[0], "DefaultLabels returns a copy")
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	content := "\ufeffcom\nga chien\n\n  canh chua  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"com", "ga chien", "canh chua"}, labels)
}

func TestLoadLabelsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLabels(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0o644))
	_, err = LoadLabels(empty)
	assert.Error(t, err)
}

func TestPrepareInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 37, 91))
	for y := 0; y < 91; y++ {
		for x := 0; x < 37; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	data, err := prepareInput(img, 224)
	require.NoError(t, err)
	defer mempool.PutFloat32(data)

	assert.Len(t, data, 3*224*224)
	for _, v := range data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestPrepareInputErrors(t *testing.T) {
	_, err := prepareInput(nil, 224)
	assert.Error(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	_, err = prepareInput(img, 0)
	assert.Error(t, err)
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float32{1, 2, 3})
	require.Len(t, probs, 3)

	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[2], probs[1])
	assert.Greater(t, probs[1], probs[0])

	assert.Nil(t, softmax(nil))
}

func TestDecodeScores(t *testing.T) {
	labels := []string{"com", "ga chien", "canh chua"}

	res, err := decodeScores([]float32{0.1, 5.0, 0.2}, labels)
	require.NoError(t, err)
	assert.Equal(t, "ga chien", res.Label)
	assert.Greater(t, res.Confidence, 0.9)

	// Index past the label list degrades to the stringified index.
	res, err = decodeScores([]float32{0.1, 0.2, 0.3, 9.0}, labels)
	require.NoError(t, err)
	assert.Equal(t, "3", res.Label)

	_, err = decodeScores(nil, labels)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.ModelPath = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.InputSize = -1
	assert.Error(t, bad.Validate())
}
