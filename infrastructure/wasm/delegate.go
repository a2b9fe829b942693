// Package wasm runs a WASI build of ffmpeg inside wazero so the codec
// delegate needs no host binary.
package wasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/ffmpeg"
	"video-to-audio/infrastructure/filesystem"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
)

// programName is argv[0] seen by the guest
const programName = "ffmpeg"

var globalArgs = []string{"-hide_banner", "-nostdin", "-y"}

// Delegate implements media.CodecDelegate on a WASI ffmpeg module. The module
// is compiled once on Load and instantiated fresh for every Exec, with the
// workspace mounted as the guest root.
type Delegate struct {
	modulePath       string
	moduleBytes      []byte
	memoryLimitPages uint32
	workspaceRoot    string
	logger           *zap.Logger

	mu        sync.Mutex
	runtime   wazero.Runtime
	compiled  wazero.CompiledModule
	workspace *filesystem.Workspace
	handler   func(media.ProgressEvent)
}

// Option is a functional option for configuring Delegate
type Option func(*Delegate)

// WithModulePath sets the .wasm file loaded on first use
func WithModulePath(path string) Option {
	return func(d *Delegate) {
		d.modulePath = path
	}
}

// WithModuleBytes supplies the module binary directly
func WithModuleBytes(b []byte) Option {
	return func(d *Delegate) {
		d.moduleBytes = b
	}
}

// WithMemoryLimitPages caps guest memory in 64 KiB pages. Zero keeps the wazero default.
func WithMemoryLimitPages(pages uint32) Option {
	return func(d *Delegate) {
		d.memoryLimitPages = pages
	}
}

// WithWorkspaceRoot sets the directory under which the private workspace is created
func WithWorkspaceRoot(dir string) Option {
	return func(d *Delegate) {
		d.workspaceRoot = dir
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Delegate) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDelegate creates an unloaded wasm codec delegate
func NewDelegate(opts ...Option) *Delegate {
	d := &Delegate{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load compiles the module and creates the workspace. Subsequent calls are no-ops.
func (d *Delegate) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.compiled != nil {
		return nil
	}

	wasmBytes := d.moduleBytes
	if wasmBytes == nil {
		if d.modulePath == "" {
			return fmt.Errorf("no wasm module configured")
		}
		b, err := os.ReadFile(d.modulePath)
		if err != nil {
			return fmt.Errorf("failed to read wasm module: %w", err)
		}
		wasmBytes = b
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if d.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(d.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return fmt.Errorf("instantiate WASI: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return fmt.Errorf("compile wasm module: %w", err)
	}

	ws, err := filesystem.NewWorkspace(d.workspaceRoot, "video-to-audio-wasm-*")
	if err != nil {
		_ = rt.Close(ctx)
		return err
	}

	d.runtime = rt
	d.compiled = compiled
	d.workspace = ws

	d.logger.Info("wasm delegate loaded",
		zap.Int("module_bytes", len(wasmBytes)),
		zap.String("workspace", ws.Dir()))
	return nil
}

// OnProgress implements media.CodecDelegate
func (d *Delegate) OnProgress(handler func(media.ProgressEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

// WriteFile implements media.CodecDelegate
func (d *Delegate) WriteFile(ctx context.Context, name string, data []byte) error {
	ws, err := d.loaded()
	if err != nil {
		return err
	}
	return ws.WriteFile(name, data)
}

// Exec implements media.CodecDelegate
func (d *Delegate) Exec(ctx context.Context, args []string) error {
	d.mu.Lock()
	rt, compiled, ws, handler := d.runtime, d.compiled, d.workspace, d.handler
	d.mu.Unlock()

	if compiled == nil {
		return fmt.Errorf("wasm delegate is not loaded")
	}

	progress := ffmpeg.NewProgressWriter(handler)
	argv := append([]string{programName}, globalArgs...)
	argv = append(argv, args...)

	d.logger.Debug("running wasm ffmpeg", zap.Strings("args", argv))

	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs(argv...).
		WithStdout(io.Discard).
		WithStderr(progress).
		WithFSConfig(wazero.NewFSConfig().WithDirMount(ws.Dir(), "/"))

	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
			return nil
		}
		if tail := progress.Tail(); tail != "" {
			return fmt.Errorf("wasm transcode failed: %w\n%s", err, tail)
		}
		return fmt.Errorf("wasm transcode failed: %w", err)
	}
	return nil
}

// ReadFile implements media.CodecDelegate
func (d *Delegate) ReadFile(ctx context.Context, name string) ([]byte, error) {
	ws, err := d.loaded()
	if err != nil {
		return nil, err
	}
	return ws.ReadFile(name)
}

// DeleteFile implements media.CodecDelegate
func (d *Delegate) DeleteFile(ctx context.Context, name string) error {
	ws, err := d.loaded()
	if err != nil {
		return err
	}
	return ws.DeleteFile(name)
}

// Close releases the runtime and removes the workspace
func (d *Delegate) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.compiled == nil {
		return nil
	}

	var errs []error
	if err := d.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.workspace.Remove(); err != nil {
		errs = append(errs, err)
	}
	d.runtime, d.compiled, d.workspace = nil, nil, nil
	return errors.Join(errs...)
}

func (d *Delegate) loaded() (*filesystem.Workspace, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.workspace == nil {
		return nil, fmt.Errorf("wasm delegate is not loaded")
	}
	return d.workspace, nil
}

// Ensure Delegate implements media.CodecDelegate
var _ media.CodecDelegate = (*Delegate)(nil)
