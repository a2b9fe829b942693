package cmd

import (
	"video-to-audio/application/transcode"
	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/ffmpeg"
	"video-to-audio/infrastructure/native"
	"video-to-audio/infrastructure/wasm"
	"video-to-audio/infrastructure/wav"

	"go.uber.org/zap"
)

// newDelegate builds the configured codec delegate
func newDelegate(c *config.Config, logger *zap.Logger) media.CodecDelegate {
	if c.Delegate.Backend == config.BackendWASM {
		return wasm.NewDelegate(
			wasm.WithModulePath(c.Delegate.WASMModule),
			wasm.WithWorkspaceRoot(c.Delegate.WorkspaceDir),
			wasm.WithLogger(logger.Named("wasm")),
		)
	}
	return ffmpeg.NewDelegate(
		ffmpeg.WithDelegateFFmpegPath(c.Delegate.FFmpegPath),
		ffmpeg.WithWorkspaceRoot(c.Delegate.WorkspaceDir),
		ffmpeg.WithDelegateLogger(logger.Named("ffmpeg")),
	)
}

// newService wires the production transcode service from config
func newService(c *config.Config, logger *zap.Logger, listener transcode.StateListener) (*transcode.Service, error) {
	route, err := transcode.ParseRoute(c.Encode.WAVRoute)
	if err != nil {
		return nil, err
	}

	offline := ffmpeg.NewOfflineFactory(
		ffmpeg.WithOfflineFFmpegPath(c.OfflineFFmpeg()),
		ffmpeg.WithOfflineFormat(c.Decode.OfflineChannels, c.Decode.OfflineSampleRate),
		ffmpeg.WithOfflineSeconds(c.Decode.OfflineSeconds),
		ffmpeg.WithOfflineLogger(logger.Named("offline")),
	)

	decoder := transcode.NewPCMDecoder(
		native.NewFactory(native.WithLogger(logger.Named("native"))),
		transcode.WithStrategies(transcode.DefaultStrategies(offline)),
		transcode.WithDecoderLogger(logger.Named("decode")),
	)

	encoder := wav.NewEncoder(
		wav.WithChunkSize(c.Encode.ChunkSize),
		wav.WithYieldEvery(c.Encode.YieldEvery),
		wav.WithLogger(logger.Named("wav")),
	)

	return transcode.NewService(
		transcode.WithPCMDecoder(decoder),
		transcode.WithWAVEncoder(encoder),
		transcode.WithDelegate(newDelegate(c, logger)),
		transcode.WithLimits(transcode.Limits{
			PCMMaxBytes:        c.Limits.PCMMaxBytes,
			DelegateMaxBytes:   c.Limits.DelegateMaxBytes,
			AcceptedExtensions: c.Limits.AcceptedExtensions,
		}),
		transcode.WithRoute(route),
		transcode.WithLogger(logger),
		transcode.WithStateListener(listener),
	), nil
}
