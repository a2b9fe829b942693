package transcode

import (
	"context"
	"errors"
	"fmt"

	"video-to-audio/domain/media"

	"go.uber.org/zap"
)

// ProgressFunc receives a milestone percentage in [0, 100]
type ProgressFunc func(percent int)

// Decode milestones reported by PCMDecoder
const (
	ProgressContextOpen = 25
	ProgressDecoded     = 50
)

// Strategy is one attempt in the decode fallback chain
type Strategy struct {
	Name   string
	Decode func(ctx context.Context, data []byte) (*media.PCMBuffer, error)
}

// StrategyBuilder builds the ordered strategies for one request around the
// request's platform decode context
type StrategyBuilder func(platform media.Decoder) []Strategy

// DefaultStrategies decodes directly, then from a duplicate of the buffer,
// then through a freshly opened offline context. offline may be nil.
func DefaultStrategies(offline media.ContextFactory) StrategyBuilder {
	return func(platform media.Decoder) []Strategy {
		strategies := []Strategy{
			{
				Name: "direct",
				Decode: func(ctx context.Context, data []byte) (*media.PCMBuffer, error) {
					return platform.Decode(ctx, data)
				},
			},
			{
				Name: "duplicate",
				Decode: func(ctx context.Context, data []byte) (*media.PCMBuffer, error) {
					return platform.Decode(ctx, append([]byte(nil), data...))
				},
			},
		}
		if offline != nil {
			strategies = append(strategies, Strategy{
				Name:   "offline",
				Decode: offlineDecode(offline),
			})
		}
		return strategies
	}
}

func offlineDecode(factory media.ContextFactory) func(ctx context.Context, data []byte) (*media.PCMBuffer, error) {
	return func(ctx context.Context, data []byte) (*media.PCMBuffer, error) {
		dc, err := factory.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open offline context: %w", err)
		}
		defer dc.Close()
		return dc.Decode(ctx, data)
	}
}

// PCMDecoder turns input bytes into PCM by trying strategies in order
type PCMDecoder struct {
	platform   media.ContextFactory
	strategies StrategyBuilder
	logger     *zap.Logger
}

// DecoderOption is a functional option for configuring PCMDecoder
type DecoderOption func(*PCMDecoder)

// WithStrategies replaces the default fallback chain
func WithStrategies(b StrategyBuilder) DecoderOption {
	return func(d *PCMDecoder) {
		d.strategies = b
	}
}

// WithDecoderLogger sets the logger
func WithDecoderLogger(l *zap.Logger) DecoderOption {
	return func(d *PCMDecoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewPCMDecoder creates a decoder opening one platform context per request.
// Without WithStrategies it uses DefaultStrategies with no offline stage.
func NewPCMDecoder(platform media.ContextFactory, opts ...DecoderOption) *PCMDecoder {
	d := &PCMDecoder{
		platform:   platform,
		strategies: DefaultStrategies(nil),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode runs the fallback chain. The platform context is closed before
// returning on every path. Exhausting the chain yields a DecodeError that
// wraps each strategy's failure.
func (d *PCMDecoder) Decode(ctx context.Context, data []byte, report ProgressFunc) (*media.PCMBuffer, error) {
	if report == nil {
		report = func(int) {}
	}

	var platform media.Decoder
	dc, err := d.platform.Open(ctx)
	if err != nil {
		platform = failingDecoder{err: fmt.Errorf("open decode context: %w", err)}
	} else {
		defer dc.Close()
		platform = dc
	}
	report(ProgressContextOpen)

	buf, err := d.run(ctx, data, d.strategies(platform))
	if err != nil {
		return nil, err
	}
	report(ProgressDecoded)
	return buf, nil
}

func (d *PCMDecoder) run(ctx context.Context, data []byte, strategies []Strategy) (*media.PCMBuffer, error) {
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		buf, err := s.Decode(ctx, data)
		if err == nil {
			err = buf.Validate()
		}
		if err == nil {
			d.logger.Debug("decode strategy succeeded",
				zap.String("strategy", s.Name),
				zap.Int("sample_rate", buf.SampleRate),
				zap.Int("channels", buf.NumChannels()),
				zap.Int("frames", buf.Length()))
			return buf, nil
		}

		d.logger.Debug("decode strategy failed",
			zap.String("strategy", s.Name),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no decode strategies configured"))
	}
	return nil, media.NewDecodeError(errors.Join(errs...))
}

// failingDecoder stands in for a platform context that could not be opened
type failingDecoder struct {
	err error
}

func (f failingDecoder) Decode(context.Context, []byte) (*media.PCMBuffer, error) {
	return nil, f.err
}
