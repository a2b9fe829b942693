package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"video-to-audio/domain/media"

	"go.uber.org/zap"
)

// Offline decode defaults. Seconds only sizes the initial output buffer;
// longer inputs are decoded in full.
const (
	DefaultOfflineChannels   = 2
	DefaultOfflineSampleRate = 44100
	DefaultOfflineSeconds    = 300
)

// ErrContextClosed is returned when decoding on a closed offline context
var ErrContextClosed = errors.New("offline decode context is closed")

// OfflineFactory opens offline decode contexts that render any ffmpeg-readable
// input to stereo float PCM at a fixed rate.
type OfflineFactory struct {
	ffmpegPath string
	runner     CommandRunner
	channels   int
	sampleRate int
	seconds    int
	logger     *zap.Logger
}

// OfflineOption is a functional option for configuring OfflineFactory
type OfflineOption func(*OfflineFactory)

// WithOfflineFFmpegPath sets a custom ffmpeg executable path
func WithOfflineFFmpegPath(path string) OfflineOption {
	return func(f *OfflineFactory) {
		if path != "" {
			f.ffmpegPath = path
		}
	}
}

// WithOfflineCommandRunner sets a custom command runner (for testing)
func WithOfflineCommandRunner(runner CommandRunner) OfflineOption {
	return func(f *OfflineFactory) {
		f.runner = runner
	}
}

// WithOfflineFormat sets the rendered channel count and sample rate
func WithOfflineFormat(channels, sampleRate int) OfflineOption {
	return func(f *OfflineFactory) {
		if channels > 0 {
			f.channels = channels
		}
		if sampleRate > 0 {
			f.sampleRate = sampleRate
		}
	}
}

// WithOfflineSeconds sets the preallocated capacity in seconds
func WithOfflineSeconds(seconds int) OfflineOption {
	return func(f *OfflineFactory) {
		if seconds > 0 {
			f.seconds = seconds
		}
	}
}

// WithOfflineLogger sets the logger
func WithOfflineLogger(l *zap.Logger) OfflineOption {
	return func(f *OfflineFactory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewOfflineFactory creates a factory with the default 2 ch / 44100 Hz format
func NewOfflineFactory(opts ...OfflineOption) *OfflineFactory {
	f := &OfflineFactory{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
		channels:   DefaultOfflineChannels,
		sampleRate: DefaultOfflineSampleRate,
		seconds:    DefaultOfflineSeconds,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Open implements media.ContextFactory
func (f *OfflineFactory) Open(ctx context.Context) (media.DecodeContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cctx, cancel := context.WithCancel(context.Background())
	return &OfflineContext{factory: f, ctx: cctx, cancel: cancel}, nil
}

// OfflineContext is a single-use offline render bound to one ffmpeg child
type OfflineContext struct {
	factory *OfflineFactory
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Decode implements media.Decoder
func (c *OfflineContext) Decode(ctx context.Context, data []byte) (*media.PCMBuffer, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrContextClosed
	}

	f := c.factory
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case <-c.ctx.Done():
			stop()
		case <-runCtx.Done():
		}
	}()

	frameBytes := 4 * f.channels
	out := bytes.NewBuffer(make([]byte, 0, f.seconds*f.sampleRate*frameBytes))
	stderr := NewProgressWriter(nil)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", strconv.Itoa(f.channels),
		"-ar", strconv.Itoa(f.sampleRate),
		"pipe:1",
	}

	err := f.runner.Stream(runCtx, Invocation{
		Stdin:  bytes.NewReader(data),
		Stdout: out,
		Stderr: stderr,
	}, f.ffmpegPath, args...)
	if err != nil {
		if tail := stderr.Tail(); tail != "" {
			return nil, fmt.Errorf("ffmpeg offline decode failed: %w\n%s", err, tail)
		}
		return nil, fmt.Errorf("ffmpeg offline decode failed: %w", err)
	}

	raw := out.Bytes()
	frames := len(raw) / frameBytes
	if frames == 0 {
		return nil, fmt.Errorf("ffmpeg offline decode produced no audio")
	}

	buf := media.NewPCMBuffer(f.sampleRate, f.channels, frames)
	for i := 0; i < frames; i++ {
		base := i * frameBytes
		for ch := 0; ch < f.channels; ch++ {
			bits := binary.LittleEndian.Uint32(raw[base+4*ch:])
			buf.Channels[ch][i] = math.Float32frombits(bits)
		}
	}

	f.logger.Debug("offline decode complete",
		zap.Int("frames", frames),
		zap.Int("channels", f.channels),
		zap.Int("sample_rate", f.sampleRate))

	return buf, nil
}

// Close cancels any running render and releases the context
func (c *OfflineContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()
	return nil
}

var (
	_ media.ContextFactory = (*OfflineFactory)(nil)
	_ media.DecodeContext  = (*OfflineContext)(nil)
)
