package wav

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"

	"video-to-audio/domain/media"

	"go.uber.org/zap"
)

const (
	// HeaderSize is the size of the canonical RIFF/WAVE header
	HeaderSize = 44

	// BitsPerSample is the fixed output sample width
	BitsPerSample = 16

	// DefaultChunkSize is the number of sample frames written per group
	DefaultChunkSize = 10000

	// DefaultYieldEvery is the number of groups between cooperative yields
	DefaultYieldEvery = 10

	formatPCM     = 1
	bytesPerFrame = BitsPerSample / 8
)

// Encoder serializes PCM buffers into 16-bit WAV files.
// Samples are written in groups; every yieldEvery groups the encoder calls
// yield so other goroutines get scheduled, then checks for cancellation.
type Encoder struct {
	chunkSize  int
	yieldEvery int
	yield      func()
	logger     *zap.Logger
}

// Option is a functional option for configuring Encoder
type Option func(*Encoder)

// WithChunkSize sets the number of sample frames per group
func WithChunkSize(n int) Option {
	return func(e *Encoder) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithYieldEvery sets how many groups are written between yields
func WithYieldEvery(n int) Option {
	return func(e *Encoder) {
		if n > 0 {
			e.yieldEvery = n
		}
	}
}

// WithYieldFunc replaces runtime.Gosched as the suspension point (for testing)
func WithYieldFunc(fn func()) Option {
	return func(e *Encoder) {
		if fn != nil {
			e.yield = fn
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEncoder creates a WAV encoder
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		chunkSize:  DefaultChunkSize,
		yieldEvery: DefaultYieldEvery,
		yield:      runtime.Gosched,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EncodedSize returns the byte size of the WAV file for the given shape
func EncodedSize(length, channels int) int {
	return HeaderSize + length*channels*bytesPerFrame
}

// Encode implements media.PCMEncoder
func (e *Encoder) Encode(ctx context.Context, buf *media.PCMBuffer) (out []byte, err error) {
	if err := buf.Validate(); err != nil {
		return nil, media.NewEncodeError(err)
	}

	length := buf.Length()
	channels := buf.NumChannels()

	dataBytes := uint64(length) * uint64(channels) * bytesPerFrame
	if dataBytes > math.MaxUint32-36 {
		return nil, media.NewEncodeError(fmt.Errorf("audio too long for WAV: %d data bytes", dataBytes))
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = media.NewEncodeError(fmt.Errorf("allocating %d bytes: %v", HeaderSize+dataBytes, r))
		}
	}()
	out = make([]byte, HeaderSize+int(dataBytes))

	writeHeader(out, buf.SampleRate, channels, uint32(dataBytes))

	offset := HeaderSize
	groups := 0
	for start := 0; start < length; start += e.chunkSize {
		end := min(start+e.chunkSize, length)

		for i := start; i < end; i++ {
			for ch := 0; ch < channels; ch++ {
				binary.LittleEndian.PutUint16(out[offset:], uint16(SampleToInt16(buf.Channels[ch][i])))
				offset += bytesPerFrame
			}
		}

		groups++
		if groups%e.yieldEvery == 0 && end < length {
			e.yield()
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("wav encoding interrupted: %w", err)
			}
		}
	}

	e.logger.Debug("encoded wav",
		zap.Int("sample_rate", buf.SampleRate),
		zap.Int("channels", channels),
		zap.Int("frames", length),
		zap.Int("groups", groups),
		zap.Int("bytes", len(out)))

	return out, nil
}

// writeHeader fills the 44-byte canonical header
func writeHeader(out []byte, sampleRate, channels int, dataBytes uint32) {
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], 36+dataBytes)
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*channels*bytesPerFrame))
	binary.LittleEndian.PutUint16(out[32:34], uint16(channels*bytesPerFrame))
	binary.LittleEndian.PutUint16(out[34:36], BitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataBytes)
}

// SampleToInt16 clamps a float sample to [-1, 1] and scales it asymmetrically:
// negative values by 32768, non-negative values by 32767. The result is
// truncated toward zero. NaN encodes as silence.
func SampleToInt16(sample float32) int16 {
	s := float64(sample)
	if math.IsNaN(s) {
		return 0
	}
	s = max(-1, min(1, s))
	if s < 0 {
		return int16(s * 0x8000)
	}
	return int16(s * 0x7FFF)
}

var _ media.PCMEncoder = (*Encoder)(nil)
