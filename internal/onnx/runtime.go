// Package onnx wraps the shared onnxruntime environment: library discovery,
// environment lifecycle, tensor construction, and GPU session options.
package onnx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	initMu      sync.Mutex
	initialized bool
)

// Initialize sets the onnxruntime shared library path and initializes the
// environment once for the whole process. Safe to call from multiple model
// loaders.
func Initialize() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized || ort.IsInitialized() {
		initialized = true
		return nil
	}

	if err := setLibraryPath(); err != nil {
		return err
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnxruntime environment: %w", err)
	}
	initialized = true
	return nil
}

// Cleanup destroys the shared environment. Intended for tests and process
// shutdown; sessions must be closed first.
func Cleanup() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized && !ort.IsInitialized() {
		return nil
	}
	initialized = false
	return ort.DestroyEnvironment()
}

// setLibraryPath locates the onnxruntime shared library and registers it with
// the bindings. Resolution order: explicit env var, project-local install,
// system locations, then the bare library name for the dynamic loader.
func setLibraryPath() error {
	if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("ONNXRUNTIME_SHARED_LIBRARY_PATH points to missing file %s: %w", path, err)
		}
		ort.SetSharedLibraryPath(path)
		return nil
	}

	libName := sharedLibraryName()

	if root, err := findProjectRoot(); err == nil {
		candidate := filepath.Join(root, "onnxruntime", "lib", libName)
		if _, err := os.Stat(candidate); err == nil {
			ort.SetSharedLibraryPath(candidate)
			return nil
		}
	}

	for _, dir := range systemLibraryDirs() {
		candidate := filepath.Join(dir, libName)
		if _, err := os.Stat(candidate); err == nil {
			ort.SetSharedLibraryPath(candidate)
			return nil
		}
	}

	slog.Debug("onnxruntime library not found in known locations, relying on loader search path",
		"library", libName)
	ort.SetSharedLibraryPath(libName)
	return nil
}

func sharedLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}

func systemLibraryDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/usr/local/lib", "/opt/homebrew/lib"}
	case "windows":
		return []string{`C:\Program Files\onnxruntime\lib`}
	default:
		return []string{"/usr/lib", "/usr/local/lib", "/usr/lib/x86_64-linux-gnu"}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}
