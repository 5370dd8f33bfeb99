// Package utils provides image loading, resizing, and tensor preprocessing
// helpers shared by the localizer, classifier, and pipeline packages.
package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Register additional decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrUnsupportedFormat indicates a file extension outside the decodable set.
var ErrUnsupportedFormat = fmt.Errorf("unsupported image format")

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// IsSupportedImage reports whether the file extension is a decodable format.
func IsSupportedImage(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	if !IsSupportedImage(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes an in-memory image payload.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return img, nil
}

// ResizeToFit downscales an image so its longer side is at most maxSide,
// preserving aspect ratio. Images already within the bound are returned
// unchanged; this never upscales.
func ResizeToFit(img image.Image, maxSide int) image.Image {
	if img == nil || maxSide <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxSide, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxSide, imaging.Lanczos)
}

// LetterboxResult describes how an image was mapped onto a square canvas so
// detections can be projected back to original coordinates.
type LetterboxResult struct {
	Image image.Image
	Scale float64
	PadX  int
	PadY  int
}

// Letterbox scales the image to fit a size x size canvas, preserving aspect
// ratio, and centers it on a neutral gray background.
func Letterbox(img image.Image, size int) (LetterboxResult, error) {
	if img == nil {
		return LetterboxResult{}, fmt.Errorf("nil image")
	}
	if size <= 0 {
		return LetterboxResult{}, fmt.Errorf("invalid letterbox size %d", size)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return LetterboxResult{}, fmt.Errorf("empty image %dx%d", w, h)
	}

	scale := float64(size) / float64(w)
	if h > w {
		scale = float64(size) / float64(h)
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	resized := imaging.Resize(img, newW, newH, imaging.Lanczos)
	canvas := imaging.New(size, size, color.NRGBA{R: 114, G: 114, B: 114, A: 255})
	padX := (size - newW) / 2
	padY := (size - newH) / 2
	out := imaging.Paste(canvas, resized, image.Pt(padX, padY))

	return LetterboxResult{Image: out, Scale: scale, PadX: padX, PadY: padY}, nil
}

// CropRect extracts a sub-image. The rectangle is clipped to the image bounds.
func CropRect(img image.Image, r image.Rectangle) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("crop rectangle %v outside image bounds %v", r, img.Bounds())
	}
	return imaging.Crop(img, clipped), nil
}
