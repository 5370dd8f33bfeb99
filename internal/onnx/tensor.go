package onnx

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// NewImageTensor wraps a normalized NCHW float32 buffer in an onnxruntime
// tensor with shape [batch, channels, height, width]. The buffer length must
// match the shape exactly.
func NewImageTensor(data []float32, batch, channels, height, width int) (*ort.Tensor[float32], error) {
	if batch <= 0 || channels <= 0 || height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid tensor dimensions [%d,%d,%d,%d]", batch, channels, height, width)
	}
	expected := batch * channels * height * width
	if len(data) != expected {
		return nil, fmt.Errorf("tensor data length %d does not match shape [%d,%d,%d,%d] (want %d)",
			len(data), batch, channels, height, width, expected)
	}
	shape := ort.NewShape(int64(batch), int64(channels), int64(height), int64(width))
	tensor, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}
	return tensor, nil
}

// ValidateNormalized checks that every element of a preprocessed image buffer
// lies in [0,1]. Used by warmup paths and tests to catch preprocessing bugs
// before they reach a model.
func ValidateNormalized(data []float32) error {
	for i, v := range data {
		if v < 0 || v > 1 {
			return fmt.Errorf("value %f at index %d outside [0,1]", v, i)
		}
	}
	return nil
}
