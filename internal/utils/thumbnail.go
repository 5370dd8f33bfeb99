package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
)

const thumbnailJPEGQuality = 95

// EncodeJPEGDataURL encodes an image as a base64 JPEG data URL suitable for
// embedding in a JSON response.
func EncodeJPEGDataURL(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Thumbnail crops a region out of an image and downscales it so its longer
// side is at most maxSide, returning the result as a JPEG data URL.
func Thumbnail(img image.Image, r image.Rectangle, maxSide int) (string, error) {
	crop, err := CropRect(img, r)
	if err != nil {
		return "", err
	}
	return EncodeJPEGDataURL(ResizeToFit(crop, maxSide))
}
