package wasm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// emptyStart is a core module exporting a _start that returns immediately
var emptyStart = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: () -> ()
	0x03, 0x02, 0x01, 0x00, // func 0 has type 0
	0x07, 0x0a, 0x01, 0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x00, // export _start
	0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b, // body: end
}

// trappingStart is like emptyStart but its _start traps
var trappingStart = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x0a, 0x01, 0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x00,
	0x0a, 0x05, 0x01, 0x03, 0x00, 0x00, 0x0b, // body: unreachable, end
}

func loadDelegate(t *testing.T, module []byte) *Delegate {
	t.Helper()
	d := NewDelegate(WithModuleBytes(module), WithWorkspaceRoot(t.TempDir()))
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	return d
}

func TestDelegate_LoadIsCached(t *testing.T) {
	d := loadDelegate(t, emptyStart)
	compiled := d.compiled

	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if d.compiled != compiled {
		t.Error("second Load() should reuse the compiled module")
	}
}

func TestDelegate_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantMsg string
	}{
		{
			name:    "nothing configured",
			wantMsg: "no wasm module configured",
		},
		{
			name:    "missing file",
			opts:    []Option{WithModulePath(filepath.Join(os.TempDir(), "does-not-exist.wasm"))},
			wantMsg: "failed to read wasm module",
		},
		{
			name:    "invalid binary",
			opts:    []Option{WithModuleBytes([]byte("not wasm"))},
			wantMsg: "compile wasm module",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDelegate(append(tt.opts, WithWorkspaceRoot(t.TempDir()))...)
			err := d.Load(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestDelegate_LoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffmpeg.wasm")
	if err := os.WriteFile(path, emptyStart, 0644); err != nil {
		t.Fatal(err)
	}

	d := NewDelegate(WithModulePath(path), WithWorkspaceRoot(t.TempDir()), WithMemoryLimitPages(16))
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer d.Close(context.Background())
}

func TestDelegate_Exec(t *testing.T) {
	d := loadDelegate(t, emptyStart)
	ctx := context.Background()

	if err := d.WriteFile(ctx, "input.wav", []byte("RIFF")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := d.Exec(ctx, []string{"-i", "input.wav", "output.mp3"}); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if err := d.Exec(ctx, []string{"-i", "input.wav", "output.mp3"}); err != nil {
		t.Fatalf("second Exec() error = %v", err)
	}
	if err := d.DeleteFile(ctx, "input.wav"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
}

func TestDelegate_ExecTrap(t *testing.T) {
	d := loadDelegate(t, trappingStart)

	err := d.Exec(context.Background(), []string{"-i", "input.wav", "output.mp3"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !contains(err.Error(), "wasm transcode failed") {
		t.Errorf("error = %q, want to contain 'wasm transcode failed'", err.Error())
	}
}

func TestDelegate_NotLoaded(t *testing.T) {
	d := NewDelegate()

	if err := d.Exec(context.Background(), nil); err == nil {
		t.Error("Exec() before Load should fail")
	}
	if _, err := d.ReadFile(context.Background(), "output.mp3"); err == nil {
		t.Error("ReadFile() before Load should fail")
	}
	if err := d.Close(context.Background()); err != nil {
		t.Errorf("Close() on unloaded delegate error = %v", err)
	}
}

func TestDelegate_CloseRemovesWorkspace(t *testing.T) {
	d := NewDelegate(WithModuleBytes(emptyStart), WithWorkspaceRoot(t.TempDir()))
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	dir := d.workspace.Dir()

	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace %q still exists", dir)
	}
}

// contains checks if a string contains a substring
func contains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
