// Package testutil provides shared helpers for tests: project paths and
// synthetic tray images.
package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// ProjectRoot walks up from the working directory to the go.mod directory.
func ProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above working directory")
		}
		dir = parent
	}
}

// ModelsDir returns the repository's models directory, skipping the test
// when it does not exist. Used by tests that need real model files.
func ModelsDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(ProjectRoot(t), "models")
	if _, err := os.Stat(dir); err != nil {
		t.Skipf("models directory not available: %v", err)
	}
	return dir
}

// TrayImage renders a synthetic tray photo: a neutral background with
// distinctly colored square patches standing in for dishes.
func TrayImage(w, h int, patches ...image.Rectangle) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := color.RGBA{R: 210, G: 205, B: 195, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, bg)
		}
	}
	colors := []color.RGBA{
		{R: 200, G: 60, B: 40, A: 255},
		{R: 60, G: 160, B: 70, A: 255},
		{R: 230, G: 180, B: 60, A: 255},
		{R: 90, G: 90, B: 200, A: 255},
	}
	for i, p := range patches {
		c := colors[i%len(colors)]
		clipped := p.Intersect(img.Bounds())
		for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
			for x := clipped.Min.X; x < clipped.Max.X; x++ {
				img.Set(x, y, c)
			}
		}
	}
	return img
}
