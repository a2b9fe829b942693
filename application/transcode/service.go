// Package transcode converts input media into audio output. It routes each
// request either through the PCM path (decode fallback chain + WAV encoder)
// or through the codec delegate, and publishes a single ConversionState.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"video-to-audio/domain/media"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Size ceilings per path
const (
	DefaultPCMMaxBytes      int64 = 500 * 1024 * 1024
	DefaultDelegateMaxBytes int64 = 100 * 1024 * 1024
)

// ErrBusy is returned when Convert is called while another conversion runs
var ErrBusy = &media.Error{Kind: media.KindValidation, Message: "a conversion is already in progress"}

var errNoDelegate = errors.New("no codec delegate configured")

// Route selects how WAV output is produced
type Route string

const (
	// RoutePCM decodes to PCM and writes WAV in-process
	RoutePCM Route = "pcm"
	// RouteDelegate hands WAV output to the codec delegate
	RouteDelegate Route = "delegate"
)

// ParseRoute parses a route name, defaulting empty to RoutePCM
func ParseRoute(s string) (Route, error) {
	switch Route(s) {
	case "", RoutePCM:
		return RoutePCM, nil
	case RouteDelegate:
		return RouteDelegate, nil
	}
	return "", fmt.Errorf("invalid wav route %q: must be %q or %q", s, RoutePCM, RouteDelegate)
}

// Limits bounds accepted input. A non-positive ceiling disables that check;
// an empty extension list accepts every extension.
type Limits struct {
	PCMMaxBytes        int64
	DelegateMaxBytes   int64
	AcceptedExtensions []string
}

// DefaultLimits returns the standard ceilings with no extension filter
func DefaultLimits() Limits {
	return Limits{
		PCMMaxBytes:      DefaultPCMMaxBytes,
		DelegateMaxBytes: DefaultDelegateMaxBytes,
	}
}

// StateListener observes every state change in order
type StateListener func(media.ConversionState)

// Service is the transcode orchestrator. It runs at most one conversion at a time.
type Service struct {
	decoder  *PCMDecoder
	encoder  media.PCMEncoder
	delegate media.CodecDelegate
	limits   Limits
	wavRoute Route
	logger   *zap.Logger
	listener StateListener

	inFlight atomic.Bool

	notifyMu sync.Mutex
	mu       sync.Mutex
	state    media.ConversionState

	loadMu sync.Mutex
	loaded atomic.Bool
}

// Option is a functional option for configuring Service
type Option func(*Service)

// WithPCMDecoder sets the decoder used by the PCM path
func WithPCMDecoder(d *PCMDecoder) Option {
	return func(s *Service) {
		s.decoder = d
	}
}

// WithWAVEncoder sets the encoder used by the PCM path
func WithWAVEncoder(e media.PCMEncoder) Option {
	return func(s *Service) {
		s.encoder = e
	}
}

// WithDelegate sets the codec delegate for compressed output
func WithDelegate(d media.CodecDelegate) Option {
	return func(s *Service) {
		s.delegate = d
	}
}

// WithLimits sets the input limits
func WithLimits(l Limits) Option {
	return func(s *Service) {
		s.limits = l
	}
}

// WithRoute sets how WAV output is produced
func WithRoute(r Route) Option {
	return func(s *Service) {
		s.wavRoute = r
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStateListener registers a callback for state changes. The callback
// runs synchronously on the converting goroutine and may call State.
func WithStateListener(fn StateListener) Option {
	return func(s *Service) {
		s.listener = fn
	}
}

// NewService creates a transcode orchestrator
func NewService(opts ...Option) *Service {
	s := &Service{
		limits:   DefaultLimits(),
		wavRoute: RoutePCM,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the conversion state
func (s *Service) State() media.ConversionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsReady reports whether a conversion can start without warming the delegate
func (s *Service) IsReady() bool {
	return s.delegate == nil || s.loaded.Load()
}

// Warm loads the codec delegate ahead of the first conversion
func (s *Service) Warm(ctx context.Context) error {
	return s.ensureLoaded(ctx)
}

// Close releases the codec delegate if it holds resources
func (s *Service) Close(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.loaded.Store(false)
	switch d := s.delegate.(type) {
	case interface{ Close(context.Context) error }:
		return d.Close(ctx)
	case interface{ Close() error }:
		return d.Close()
	}
	return nil
}

// Convert transcodes in to format. Every failure is returned as a
// *media.Error and recorded in the state.
func (s *Service) Convert(ctx context.Context, in media.InputMedia, format media.OutputFormat) (*media.OutputBlob, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	useDelegate := s.usesDelegate(format)
	path := "pcm"
	if useDelegate {
		path = "delegate"
	}

	log := s.logger.With(
		zap.String("conversion_id", uuid.NewString()),
		zap.String("format", format.String()),
		zap.Int64("bytes", in.Size()),
		zap.String("path", path))

	if err := s.validate(in, format, useDelegate); err != nil {
		log.Info("conversion rejected", zap.Error(err))
		s.fail(err)
		return nil, err
	}

	if useDelegate {
		if err := s.ensureLoaded(ctx); err != nil {
			s.fail(err)
			return nil, err
		}
	}

	s.update(func(st *media.ConversionState) {
		st.IsConverting = true
		st.Progress = 0
		st.Error = ""
	})
	tracker := newProgressTracker(func(p int) {
		s.update(func(st *media.ConversionState) { st.Progress = p })
	})

	log.Info("conversion started")

	var blob *media.OutputBlob
	var err error
	if useDelegate {
		blob, err = s.runDelegate(ctx, in, format, tracker, log)
	} else {
		blob, err = s.runPCM(ctx, in, format, tracker)
	}

	if err != nil {
		tracker.Stop()
		classified := media.Classify(err)
		log.Warn("conversion failed",
			zap.String("kind", classified.Kind.String()),
			zap.Int("progress", tracker.Last()),
			zap.Error(err))
		s.fail(classified)
		return nil, classified
	}

	tracker.Set(ProgressComplete)
	tracker.Stop()
	s.update(func(st *media.ConversionState) { st.IsConverting = false })

	log.Info("conversion complete",
		zap.Int64("output_bytes", blob.Size()),
		zap.String("mime_type", blob.MIMEType),
		zap.Duration("elapsed", time.Since(start)))

	return blob, nil
}

func (s *Service) usesDelegate(format media.OutputFormat) bool {
	return format.IsCompressed() || s.wavRoute == RouteDelegate
}

// validate runs before any state change or decode
func (s *Service) validate(in media.InputMedia, format media.OutputFormat, useDelegate bool) error {
	if !format.IsValid() {
		return media.NewValidationError("unsupported output format %q", string(format))
	}

	limit := s.limits.PCMMaxBytes
	if useDelegate {
		limit = s.limits.DelegateMaxBytes
	}
	if limit > 0 && in.Size() > limit {
		size, ceiling := formatBytes(in.Size()), formatBytes(limit)
		if size == ceiling {
			// rounding hides the difference
			size, ceiling = fmt.Sprintf("%d bytes", in.Size()), fmt.Sprintf("%d bytes", limit)
		}
		return media.NewValidationError("file is too large: %s exceeds the %s limit", size, ceiling)
	}

	if len(s.limits.AcceptedExtensions) > 0 && !in.HasAcceptedExtension(s.limits.AcceptedExtensions) {
		return media.NewValidationError("unsupported file type %q", in.Extension())
	}
	return nil
}

func (s *Service) runPCM(ctx context.Context, in media.InputMedia, format media.OutputFormat, tracker *progressTracker) (*media.OutputBlob, error) {
	if s.decoder == nil || s.encoder == nil {
		return nil, errors.New("pcm path is not configured")
	}

	tracker.Set(ProgressInputRead)
	data := in.Data
	tracker.Set(ProgressBufferReady)

	buf, err := s.decoder.Decode(ctx, data, tracker.Set)
	if err != nil {
		return nil, err
	}
	tracker.Set(ProgressCanonical)

	tracker.Set(ProgressEncoding)
	out, err := s.encoder.Encode(ctx, buf)
	if err != nil {
		if media.KindOf(err) == media.KindUnknown && ctx.Err() == nil {
			return nil, media.NewEncodeError(err)
		}
		return nil, err
	}
	tracker.Set(ProgressEncoded)

	return &media.OutputBlob{Data: out, MIMEType: format.MIMEType()}, nil
}

// fail records err in the state and clears the converting flag. Progress is left as is.
func (s *Service) fail(err error) {
	msg := media.MessageOf(err, media.MessageConversionFailed)
	s.update(func(st *media.ConversionState) {
		st.IsConverting = false
		st.Error = msg
	})
}

// update mutates the state and notifies the listener in mutation order
func (s *Service) update(fn func(*media.ConversionState)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	s.mu.Unlock()

	if s.listener != nil {
		s.listener(snapshot)
	}
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
