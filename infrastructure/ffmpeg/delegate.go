package ffmpeg

import (
	"context"
	"fmt"
	"sync"

	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/filesystem"

	"go.uber.org/zap"
)

// globalArgs are prepended to every delegate invocation
var globalArgs = []string{"-hide_banner", "-nostdin", "-y"}

// Delegate implements media.CodecDelegate by running the ffmpeg binary
// against files in a private workspace directory.
type Delegate struct {
	ffmpegPath    string
	runner        CommandRunner
	workspaceRoot string
	logger        *zap.Logger

	mu        sync.Mutex
	workspace *filesystem.Workspace
	handler   func(media.ProgressEvent)
}

// DelegateOption is a functional option for configuring Delegate
type DelegateOption func(*Delegate)

// WithDelegateFFmpegPath sets a custom ffmpeg executable path
func WithDelegateFFmpegPath(path string) DelegateOption {
	return func(d *Delegate) {
		if path != "" {
			d.ffmpegPath = path
		}
	}
}

// WithDelegateCommandRunner sets a custom command runner (for testing)
func WithDelegateCommandRunner(runner CommandRunner) DelegateOption {
	return func(d *Delegate) {
		d.runner = runner
	}
}

// WithWorkspaceRoot sets the directory under which the private workspace is created
func WithWorkspaceRoot(dir string) DelegateOption {
	return func(d *Delegate) {
		d.workspaceRoot = dir
	}
}

// WithDelegateLogger sets the logger
func WithDelegateLogger(l *zap.Logger) DelegateOption {
	return func(d *Delegate) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDelegate creates a new ffmpeg-backed codec delegate
func NewDelegate(opts ...DelegateOption) *Delegate {
	d := &Delegate{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Load verifies ffmpeg and creates the workspace. Subsequent calls are no-ops.
func (d *Delegate) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.workspace != nil {
		return nil
	}

	if err := d.VerifyInstalled(ctx); err != nil {
		return err
	}

	ws, err := filesystem.NewWorkspace(d.workspaceRoot, "video-to-audio-*")
	if err != nil {
		return err
	}
	d.workspace = ws

	d.logger.Info("ffmpeg delegate loaded",
		zap.String("ffmpeg", d.ffmpegPath),
		zap.String("workspace", ws.Dir()))
	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (d *Delegate) VerifyInstalled(ctx context.Context) error {
	_, err := d.runner.Output(ctx, d.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
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
	ws, err := d.loaded()
	if err != nil {
		return err
	}
	d.mu.Lock()
	handler := d.handler
	d.mu.Unlock()

	progress := NewProgressWriter(handler)
	argv := append(append([]string(nil), globalArgs...), args...)

	d.logger.Debug("running ffmpeg", zap.Strings("args", argv))

	err = d.runner.Stream(ctx, Invocation{Dir: ws.Dir(), Stderr: progress}, d.ffmpegPath, argv...)
	if err != nil {
		if tail := progress.Tail(); tail != "" {
			return fmt.Errorf("ffmpeg transcode failed: %w\n%s", err, tail)
		}
		return fmt.Errorf("ffmpeg transcode failed: %w", err)
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

// Close removes the workspace. The delegate may be loaded again afterwards.
func (d *Delegate) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.workspace == nil {
		return nil
	}
	err := d.workspace.Remove()
	d.workspace = nil
	return err
}

func (d *Delegate) loaded() (*filesystem.Workspace, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.workspace == nil {
		return nil, fmt.Errorf("ffmpeg delegate is not loaded")
	}
	return d.workspace, nil
}

// Ensure Delegate implements media.CodecDelegate
var _ media.CodecDelegate = (*Delegate)(nil)
