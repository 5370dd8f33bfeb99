// Package mempool provides pooled float32 buffers for tensor preprocessing.
// Image normalization allocates large slices on every request; pooling them
// keeps GC pressure low under concurrent analysis load.
package mempool

import "sync"

// Size classes for pooled buffers, chosen around the common tensor sizes:
// a 224x224 RGB classifier input is ~150K floats, a 640x640 RGB localizer
// input is ~1.2M floats.
const (
	smallBufferSize  = 256 * 1024
	mediumBufferSize = 1024 * 1024
	largeBufferSize  = 4 * 1024 * 1024
)

var (
	smallPool = sync.Pool{
		New: func() interface{} {
			buf := make([]float32, 0, smallBufferSize)
			return &buf
		},
	}
	mediumPool = sync.Pool{
		New: func() interface{} {
			buf := make([]float32, 0, mediumBufferSize)
			return &buf
		},
	}
	largePool = sync.Pool{
		New: func() interface{} {
			buf := make([]float32, 0, largeBufferSize)
			return &buf
		},
	}
)

// GetFloat32 returns a zero-length float32 slice with at least the requested
// capacity. Buffers above the largest size class are allocated directly and
// will not be pooled on return.
func GetFloat32(size int) []float32 {
	switch {
	case size <= smallBufferSize:
		buf := smallPool.Get().(*[]float32)
		return (*buf)[:0]
	case size <= mediumBufferSize:
		buf := mediumPool.Get().(*[]float32)
		return (*buf)[:0]
	case size <= largeBufferSize:
		buf := largePool.Get().(*[]float32)
		return (*buf)[:0]
	default:
		return make([]float32, 0, size)
	}
}

// PutFloat32 returns a buffer to its size-class pool. Oversized buffers are
// dropped so the pools keep a bounded footprint.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	c := cap(buf)
	buf = buf[:0]
	switch {
	case c <= smallBufferSize:
		smallPool.Put(&buf)
	case c <= mediumBufferSize:
		mediumPool.Put(&buf)
	case c <= largeBufferSize:
		largePool.Put(&buf)
	}
}
