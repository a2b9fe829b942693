package transcode

import (
	"context"

	"video-to-audio/domain/media"

	"go.uber.org/zap"
)

// Synthetic artifact names inside the delegate's file store
const (
	delegateInputPrefix  = "input"
	delegateOutputPrefix = "output."
)

// DelegateInputName is the store name for the source, keeping its extension
func DelegateInputName(in media.InputMedia) string {
	return delegateInputPrefix + in.Extension()
}

// DelegateOutputName is the store name for the result of format
func DelegateOutputName(format media.OutputFormat) string {
	return delegateOutputPrefix + format.Extension()
}

// DelegateArgs builds the delegate argv:
// -i <input> -vn -acodec <codec> [-b:a <bitrate>] <output>
func DelegateArgs(inputName, outputName string, format media.OutputFormat) []string {
	args := []string{"-i", inputName, "-vn", "-acodec", format.Codec()}
	if br := format.Bitrate(); br != "" {
		args = append(args, "-b:a", br)
	}
	return append(args, outputName)
}

// ensureLoaded warms the delegate once. Concurrent callers wait for the
// first load; a failed load is retried on the next call.
func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.delegate == nil {
		return media.NewDelegateLoadError(errNoDelegate)
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.loaded.Load() {
		return nil
	}

	s.update(func(st *media.ConversionState) { st.IsLoading = true })
	err := s.delegate.Load(ctx)
	s.update(func(st *media.ConversionState) { st.IsLoading = false })

	if err != nil {
		s.logger.Warn("codec delegate failed to load", zap.Error(err))
		return media.NewDelegateLoadError(err)
	}

	s.loaded.Store(true)
	s.logger.Info("codec delegate loaded")
	return nil
}

// runDelegate encodes through a loaded codec delegate. Both artifacts are
// removed from the delegate store whether or not the run succeeds.
func (s *Service) runDelegate(ctx context.Context, in media.InputMedia, format media.OutputFormat, tracker *progressTracker, log *zap.Logger) (*media.OutputBlob, error) {
	inputName := DelegateInputName(in)
	outputName := DelegateOutputName(format)

	s.delegate.OnProgress(func(e media.ProgressEvent) {
		tracker.SetFraction(e.Progress)
	})
	defer s.delegate.OnProgress(nil)

	if err := s.delegate.WriteFile(ctx, inputName, in.Data); err != nil {
		return nil, media.NewEncodeError(err)
	}
	defer s.removeArtifact(ctx, inputName, log)

	args := DelegateArgs(inputName, outputName, format)
	log.Debug("invoking codec delegate", zap.Strings("args", args))

	execErr := s.delegate.Exec(ctx, args)
	defer s.removeArtifact(ctx, outputName, log)
	if execErr != nil {
		return nil, media.NewEncodeError(execErr)
	}

	data, err := s.delegate.ReadFile(ctx, outputName)
	if err != nil {
		return nil, media.NewEncodeError(err)
	}

	return &media.OutputBlob{Data: data, MIMEType: format.MIMEType()}, nil
}

func (s *Service) removeArtifact(ctx context.Context, name string, log *zap.Logger) {
	if err := s.delegate.DeleteFile(context.WithoutCancel(ctx), name); err != nil {
		log.Debug("failed to remove delegate artifact", zap.String("name", name), zap.Error(err))
	}
}
