package media

import (
	"fmt"
	"time"
)

// PCMBuffer is decoded audio held as one float sample slice per channel.
// Samples are nominally in [-1.0, 1.0] but are not clamped by decoders.
type PCMBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewPCMBuffer allocates a zeroed buffer with the given shape
func NewPCMBuffer(sampleRate, channels, length int) *PCMBuffer {
	data := make([][]float32, channels)
	for ch := range data {
		data[ch] = make([]float32, length)
	}
	return &PCMBuffer{SampleRate: sampleRate, Channels: data}
}

// NumChannels returns the channel count
func (b *PCMBuffer) NumChannels() int {
	return len(b.Channels)
}

// Length returns the per-channel sample count
func (b *PCMBuffer) Length() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns Length / SampleRate
func (b *PCMBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Length()) / float64(b.SampleRate) * float64(time.Second))
}

// Validate checks the buffer invariants: positive rate, at least one channel,
// and identical channel lengths.
func (b *PCMBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("pcm buffer is nil")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("pcm buffer has no channels")
	}
	n := len(b.Channels[0])
	for ch, data := range b.Channels[1:] {
		if len(data) != n {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", ch+1, len(data), n)
		}
	}
	return nil
}

// Clone returns a deep copy of the buffer
func (b *PCMBuffer) Clone() *PCMBuffer {
	out := &PCMBuffer{SampleRate: b.SampleRate, Channels: make([][]float32, len(b.Channels))}
	for ch, data := range b.Channels {
		out.Channels[ch] = append([]float32(nil), data...)
	}
	return out
}
