package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yaml"

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
)

var rootCmd = &cobra.Command{
	Use:   "video-to-audio",
	Short: "Extract the audio track of a video or audio file",
	Long: `video-to-audio extracts the audio from a media file and writes it as
MP3 (128k or 320k) or lossless WAV.

  - WAV is decoded and encoded in-process, falling back to ffmpeg for
    containers the built-in decoders do not understand
  - MP3 is encoded by a codec engine: the ffmpeg binary or an embedded
    WebAssembly build of ffmpeg

Example:
  video-to-audio convert --input lecture.mp4 --format mp3-high`,
	SilenceUsage: true,
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// Execute runs the root command. An interrupt cancels the running conversion.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = defaultConfigPath
	}

	// A missing file means defaults; an unreadable or invalid one is
	// reported by the commands that need config.
	cfg, cfgErr = config.LoadOrDefault(cfgFile)
	if cfgErr != nil {
		cfg = nil
	}
}

// GetConfig returns the loaded configuration
func GetConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, cfgErr
		}
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so they never mix
// with command output.
func newLogger(c *config.Config) (*zap.Logger, error) {
	level := c.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(level, c.Log.Format, os.Stderr)
}
