package cmd

import (
	"context"
	"fmt"
	"time"

	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/ffmpeg"

	"github.com/spf13/cobra"
)

// Engine is the part of the transcode service the doctor command checks
type Engine interface {
	Warm(ctx context.Context) error
	IsReady() bool
	Close(ctx context.Context) error
}

// DoctorDependencies holds the dependencies for the doctor command
type DoctorDependencies struct {
	// VerifyFFmpeg checks the ffmpeg binary used for offline decode
	VerifyFFmpeg func(ctx context.Context) error
	Engine       Engine
}

var doctorTimeout time.Duration

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the codec engine can be loaded",
	Long: `Loads the configured codec engine once and reports whether MP3
conversion is available. The ffmpeg binary used as the decode fallback
is checked as well.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 30*time.Second, "Time allowed for loading the codec engine")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := newService(c, logger, nil)
	if err != nil {
		return err
	}

	offline := ffmpeg.NewDelegate(ffmpeg.WithDelegateFFmpegPath(c.OfflineFFmpeg()))
	deps := DoctorDependencies{
		VerifyFFmpeg: offline.VerifyInstalled,
		Engine:       svc,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
	defer cancel()

	return RunDoctorWithDependencies(ctx, c, deps, cmd.OutOrStdout())
}

// RunDoctorWithDependencies runs the doctor command with injected dependencies
func RunDoctorWithDependencies(ctx context.Context, cfg *config.Config, deps DoctorDependencies, out OutputWriter) error {
	fmt.Fprintf(out, "Codec engine: %s\n", cfg.Delegate.Backend)
	fmt.Fprintf(out, "WAV route:    %s\n", cfg.Encode.WAVRoute)

	if deps.VerifyFFmpeg != nil {
		if err := deps.VerifyFFmpeg(ctx); err != nil {
			fmt.Fprintf(out, "✗ ffmpeg decode fallback unavailable: %v\n", err)
		} else {
			fmt.Fprintln(out, "✓ ffmpeg decode fallback available")
		}
	}

	defer func() { _ = deps.Engine.Close(context.WithoutCancel(ctx)) }()

	start := time.Now()
	if err := deps.Engine.Warm(ctx); err != nil {
		fmt.Fprintf(out, "✗ codec engine failed to load: %v\n", err)
		return fmt.Errorf("codec engine not ready: %w", err)
	}
	if !deps.Engine.IsReady() {
		return fmt.Errorf("codec engine not ready")
	}

	fmt.Fprintf(out, "✓ codec engine ready (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}
