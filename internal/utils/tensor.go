package utils

import (
	"fmt"
	"image"

	"github.com/traybill/traybill/internal/mempool"
)

// NormalizeImageNCHW converts an image to a planar CHW float32 buffer with
// values scaled to [0,1]. The returned slice comes from the buffer pool and
// must be released with mempool.PutFloat32 once the tensor run completes.
func NormalizeImageNCHW(img image.Image) ([]float32, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}

	n := w * h
	data := mempool.GetFloat32(3 * n)
	data = data[:3*n]

	const scale = 1.0 / 255.0
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data[idx] = float32(r>>8) * scale
			data[n+idx] = float32(g>>8) * scale
			data[2*n+idx] = float32(bl>>8) * scale
			idx++
		}
	}
	return data, nil
}
