package filesystem

import (
	"fmt"
	"os"

	"video-to-audio/domain/media"
)

// Checker implements media.FileChecker on the local filesystem
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the file size in bytes, or -1 if the file cannot be stat'd
func (c *Checker) Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}

// ReadInput loads a source file into memory as InputMedia
func (c *Checker) ReadInput(path string) (media.InputMedia, error) {
	info, err := os.Stat(path)
	if err != nil {
		return media.InputMedia{}, fmt.Errorf("input file not found: %s", path)
	}
	if info.IsDir() {
		return media.InputMedia{}, fmt.Errorf("input path is a directory: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return media.InputMedia{}, fmt.Errorf("failed to read input file: %w", err)
	}
	return media.NewInputMedia(info.Name(), data), nil
}

// WriteOutput writes a converted artifact, refusing to replace an existing
// file unless overwrite is set
func (c *Checker) WriteOutput(path string, data []byte, overwrite bool) error {
	if !overwrite && c.Exists(path) {
		return fmt.Errorf("output file already exists: %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// Ensure Checker implements media.FileChecker
var _ media.FileChecker = (*Checker)(nil)
