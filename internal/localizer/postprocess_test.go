package localizer

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

// buildOutput packs anchor columns into the [1, 4+numClasses, anchors]
// layout the model emits.
func buildOutput(numClasses int, anchors [][]float32) ([]float32, ort.Shape) {
	attrs := 4 + numClasses
	n := len(anchors)
	data := make([]float32, attrs*n)
	for a, col := range anchors {
		for attr := 0; attr < attrs; attr++ {
			data[attr*n+a] = col[attr]
		}
	}
	return data, ort.NewShape(1, int64(attrs), int64(n))
}

func testParams(w, h int) decodeParams {
	cfg := DefaultConfig()
	cfg.TargetClassID = 1
	cfg.ConfThreshold = 0.4
	cfg.IoUThreshold = 0.45
	return decodeParams{
		scale:  1.0,
		padX:   0,
		padY:   0,
		bounds: image.Rect(0, 0, w, h),
		config: cfg,
	}
}

func TestDecodeKeepsTargetClassAboveThreshold(t *testing.T) {
	// Columns: cx, cy, w, h, class0 score, class1 score.
	data, shape := buildOutput(2, [][]float32{
		{100, 100, 40, 40, 0.1, 0.9}, // target, confident
		{300, 300, 40, 40, 0.1, 0.3}, // target, below threshold
		{500, 100, 40, 40, 0.9, 0.1}, // wrong class
	})

	regions, err := decodeDetections(data, shape, testParams(640, 640))
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, image.Rect(80, 80, 120, 120), r.Box)
	assert.Equal(t, "bowl", r.CoarseLabel)
	assert.InDelta(t, 0.9, r.Confidence, 1e-6)
}

func TestDecodeUnmapsLetterbox(t *testing.T) {
	// Original image 1000x500 letterboxed into 640x640: scale 0.64, padY 160.
	p := testParams(1000, 500)
	p.scale = 0.64
	p.padY = 160

	data, shape := buildOutput(2, [][]float32{
		{320, 320, 64, 64, 0.0, 0.8},
	})
	regions, err := decodeDetections(data, shape, p)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	// (320-32-0)/0.64 = 450 .. 550 horizontally, (320-32-160)/0.64 = 200 .. 300.
	assert.Equal(t, image.Rect(450, 200, 550, 300), regions[0].Box)
}

func TestDecodeClipsToBounds(t *testing.T) {
	data, shape := buildOutput(2, [][]float32{
		{10, 10, 60, 60, 0.0, 0.9}, // extends past top-left corner
	})
	regions, err := decodeDetections(data, shape, testParams(640, 640))
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, image.Rect(0, 0, 40, 40), regions[0].Box)
}

func TestDecodeDropsEmptyBoxes(t *testing.T) {
	data, shape := buildOutput(2, [][]float32{
		{-100, -100, 10, 10, 0.0, 0.9}, // entirely outside
	})
	regions, err := decodeDetections(data, shape, testParams(640, 640))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestDecodeSuppressesOverlaps(t *testing.T) {
	data, shape := buildOutput(2, [][]float32{
		{100, 100, 40, 40, 0.0, 0.7},
		{102, 102, 40, 40, 0.0, 0.95}, // near-duplicate, higher score
		{400, 400, 40, 40, 0.0, 0.6},  // far away, kept
	})
	regions, err := decodeDetections(data, shape, testParams(640, 640))
	require.NoError(t, err)
	require.Len(t, regions, 2)

	// Highest score of the overlapping pair wins and sorts first.
	assert.InDelta(t, 0.95, regions[0].Confidence, 1e-6)
	assert.InDelta(t, 0.6, regions[1].Confidence, 1e-6)
}

func TestDecodeBadShapes(t *testing.T) {
	_, err := decodeDetections(make([]float32, 10), ort.NewShape(1, 2), testParams(640, 640))
	assert.Error(t, err)

	_, err = decodeDetections(make([]float32, 4), ort.NewShape(1, 4, 1), testParams(640, 640))
	assert.Error(t, err)

	p := testParams(640, 640)
	p.config.TargetClassID = 99
	data, shape := buildOutput(2, [][]float32{{100, 100, 40, 40, 0.5, 0.5}})
	_, err = decodeDetections(data, shape, p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "target class")
}

func TestIoU(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	assert.InDelta(t, 1.0, iou(a, a), 1e-9)
	assert.InDelta(t, 0.0, iou(a, image.Rect(20, 20, 30, 30)), 1e-9)

	b := image.Rect(0, 0, 10, 5)
	assert.InDelta(t, 0.5, iou(a, b), 1e-9)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.ModelPath = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.ConfThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.IoUThreshold = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.TargetClassID = -1
	assert.Error(t, bad.Validate())
}
