// Package native decodes common audio containers in-process, without
// spawning external tools. It recognizes WAV (go-audio/wav), FLAC
// (mewkiz/flac) and MP3 (go-mp3) by their leading bytes.
package native

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"video-to-audio/domain/media"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"go.uber.org/zap"
)

// ErrUnrecognizedFormat is returned when no container signature matches
var ErrUnrecognizedFormat = errors.New("unrecognized audio format")

// Container identifies a sniffed input container
type Container string

const (
	ContainerUnknown Container = ""
	ContainerWAV     Container = "wav"
	ContainerFLAC    Container = "flac"
	ContainerMP3     Container = "mp3"
)

// Sniff identifies the container from its leading bytes
func Sniff(data []byte) Container {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return ContainerWAV
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return ContainerFLAC
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ContainerMP3
	}
	return ContainerUnknown
}

// Decode decodes a complete in-memory file to PCM
func Decode(data []byte) (*media.PCMBuffer, error) {
	switch Sniff(data) {
	case ContainerWAV:
		return decodeWAV(data)
	case ContainerFLAC:
		return decodeFLAC(data)
	case ContainerMP3:
		return decodeMP3(data)
	}
	return nil, ErrUnrecognizedFormat
}

func decodeWAV(data []byte) (*media.PCMBuffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file")
	}

	// Only integer PCM (WAV audio format 1)
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("unsupported wav audio format: %d (only PCM supported)", dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav samples: %w", err)
	}

	return fromInterleaved(pcm, int(dec.SampleRate), int(dec.NumChans), int(dec.BitDepth))
}

func fromInterleaved(pcm *goaudio.IntBuffer, sampleRate, channels, bitDepth int) (*media.PCMBuffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	scale := fullScale(bitDepth)
	frames := len(pcm.Data) / channels
	buf := media.NewPCMBuffer(sampleRate, channels, frames)

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := pcm.Data[i*channels+ch]
			if bitDepth == 8 {
				// 8-bit WAV is unsigned
				v -= 128
			}
			buf.Channels[ch][i] = float32(float64(v) / scale)
		}
	}

	return buf, nil
}

func decodeFLAC(data []byte) (*media.PCMBuffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	scale := fullScale(int(info.BitsPerSample))

	buf := &media.PCMBuffer{
		SampleRate: int(info.SampleRate),
		Channels:   make([][]float32, channels),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, 0, int(info.NSamples))
	}

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		for ch := 0; ch < channels; ch++ {
			samples := frame.Subframes[ch].Samples
			for i := 0; i < int(frame.BlockSize); i++ {
				buf.Channels[ch] = append(buf.Channels[ch], float32(float64(samples[i])/scale))
			}
		}
	}

	return buf, nil
}

func decodeMP3(data []byte) (*media.PCMBuffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	// go-mp3 always yields 16-bit little-endian stereo
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	const channels = 2
	frames := len(raw) / (channels * 2)
	buf := media.NewPCMBuffer(dec.SampleRate(), channels, frames)

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			sample16 := int16(binary.LittleEndian.Uint16(raw[(i*channels+ch)*2:]))
			buf.Channels[ch][i] = float32(sample16) / 32768
		}
	}

	return buf, nil
}

func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	return float64(uint64(1) << (bitDepth - 1))
}

// Context is a per-request decode context. It must be closed when the
// request completes; decoding through a closed context fails.
type Context struct {
	logger *zap.Logger
	closed bool
}

// Decode implements media.Decoder
func (c *Context) Decode(ctx context.Context, data []byte) (*media.PCMBuffer, error) {
	if c.closed {
		return nil, fmt.Errorf("decode context is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := Decode(data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("native decode complete",
		zap.String("container", string(Sniff(data))),
		zap.Int("sample_rate", buf.SampleRate),
		zap.Int("channels", buf.NumChannels()),
		zap.Int("frames", buf.Length()))

	return buf, nil
}

// Close releases the context
func (c *Context) Close() error {
	c.closed = true
	return nil
}

// Factory opens native decode contexts
type Factory struct {
	logger *zap.Logger
}

// FactoryOption is a functional option for configuring Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger handed to opened contexts
func WithLogger(l *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory creates a native context factory
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open implements media.ContextFactory
func (f *Factory) Open(ctx context.Context) (media.DecodeContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Context{logger: f.logger}, nil
}

var (
	_ media.ContextFactory = (*Factory)(nil)
	_ media.DecodeContext  = (*Context)(nil)
)
