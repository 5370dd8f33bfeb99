package classifier

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/traybill/traybill/internal/utils"
)

// prepareInput resizes a dish crop to the model's square input without
// preserving aspect ratio and normalizes it to a [0,1] NCHW buffer. The
// returned buffer comes from the shared pool.
func prepareInput(img image.Image, size int) ([]float32, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid input size %d", size)
	}
	resized := imaging.Resize(img, size, size, imaging.Lanczos)
	data, err := utils.NormalizeImageNCHW(resized)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize classifier input: %w", err)
	}
	return data, nil
}

// softmax converts logits to probabilities in place-safe fashion.
func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v - maxLogit))
		sum += probs[i]
	}
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}
	return probs
}
