package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a private temporary directory holding flat-named files
type Workspace struct {
	mu  sync.Mutex
	dir string
}

// NewWorkspace creates a workspace under root (os.TempDir when empty)
func NewWorkspace(root, pattern string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory, empty once removed
func (w *Workspace) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// Path resolves name inside the workspace. Names must not contain separators.
func (w *Workspace) Path(name string) (string, error) {
	dir := w.Dir()
	if dir == "" {
		return "", fmt.Errorf("workspace has been removed")
	}
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid workspace file name %q", name)
	}
	return filepath.Join(dir, name), nil
}

// WriteFile stores data under name
func (w *Workspace) WriteFile(name string, data []byte) error {
	path, err := w.Path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ReadFile returns the contents of name
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	path, err := w.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// DeleteFile removes name
func (w *Workspace) DeleteFile(name string) error {
	path, err := w.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Remove deletes the workspace and everything in it
func (w *Workspace) Remove() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}
