package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"video-to-audio/domain/media"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultPCMMaxBytes      int64 = 500 * 1024 * 1024
	DefaultDelegateMaxBytes int64 = 100 * 1024 * 1024
	DefaultSampleRate             = 44100
	DefaultChannels               = 2
	DefaultOfflineSeconds         = 300
	DefaultChunkSize              = 10000
	DefaultYieldEvery             = 10
	DefaultFFmpegPath             = "ffmpeg"
)

// Delegate backends
const (
	BackendExec = "exec"
	BackendWASM = "wasm"
)

// WAV routes
const (
	RoutePCM      = "pcm"
	RouteDelegate = "delegate"
)

// Config represents the complete application configuration
type Config struct {
	Limits   LimitsConfig   `yaml:"limits"`
	Delegate DelegateConfig `yaml:"delegate"`
	Decode   DecodeConfig   `yaml:"decode"`
	Encode   EncodeConfig   `yaml:"encode"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// LimitsConfig contains input size ceilings and the accepted extensions
type LimitsConfig struct {
	PCMMaxBytes        int64    `yaml:"pcm_max_bytes"`
	DelegateMaxBytes   int64    `yaml:"delegate_max_bytes"`
	AcceptedExtensions []string `yaml:"accepted_extensions,omitempty"`
}

// DelegateConfig selects and configures the codec delegate
type DelegateConfig struct {
	Backend      string `yaml:"backend"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	WASMModule   string `yaml:"wasm_module,omitempty"`
	WorkspaceDir string `yaml:"workspace_dir,omitempty"`
}

// DecodeConfig contains offline decode settings
type DecodeConfig struct {
	OfflineFFmpegPath string `yaml:"offline_ffmpeg_path,omitempty"`
	OfflineSampleRate int    `yaml:"offline_sample_rate"`
	OfflineChannels   int    `yaml:"offline_channels"`
	OfflineSeconds    int    `yaml:"offline_seconds"`
}

// EncodeConfig contains WAV encoding settings
type EncodeConfig struct {
	WAVRoute   string `yaml:"wav_route"`
	ChunkSize  int    `yaml:"chunk_size"`
	YieldEvery int    `yaml:"yield_every"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format,omitempty"`
	Overwrite bool   `yaml:"overwrite"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			PCMMaxBytes:      DefaultPCMMaxBytes,
			DelegateMaxBytes: DefaultDelegateMaxBytes,
		},
		Delegate: DelegateConfig{
			Backend:    BackendExec,
			FFmpegPath: DefaultFFmpegPath,
		},
		Decode: DecodeConfig{
			OfflineSampleRate: DefaultSampleRate,
			OfflineChannels:   DefaultChannels,
			OfflineSeconds:    DefaultOfflineSeconds,
		},
		Encode: EncodeConfig{
			WAVRoute:   RoutePCM,
			ChunkSize:  DefaultChunkSize,
			YieldEvery: DefaultYieldEvery,
		},
		Output: OutputConfig{
			Directory: ".",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads and parses the configuration from the specified YAML file.
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return data, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Limits.PCMMaxBytes < 0 || c.Limits.DelegateMaxBytes < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	for _, ext := range c.Limits.AcceptedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("accepted extension %q must start with a dot", ext)
		}
	}

	switch c.Delegate.Backend {
	case BackendExec:
	case BackendWASM:
		if c.Delegate.WASMModule == "" {
			return fmt.Errorf("delegate.wasm_module is required for the %s backend", BackendWASM)
		}
	default:
		return fmt.Errorf("invalid delegate backend %q: must be %s or %s", c.Delegate.Backend, BackendExec, BackendWASM)
	}

	if c.Decode.OfflineSampleRate <= 0 || c.Decode.OfflineChannels <= 0 || c.Decode.OfflineSeconds <= 0 {
		return fmt.Errorf("decode settings must be positive")
	}

	if !slices.Contains([]string{RoutePCM, RouteDelegate}, c.Encode.WAVRoute) {
		return fmt.Errorf("invalid wav_route %q: must be %s or %s", c.Encode.WAVRoute, RoutePCM, RouteDelegate)
	}
	if c.Encode.ChunkSize <= 0 || c.Encode.YieldEvery <= 0 {
		return fmt.Errorf("encode chunk_size and yield_every must be positive")
	}

	if c.Output.Format != "" {
		if _, err := media.ParseOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if !slices.Contains([]string{"console", "json"}, c.Log.Format) {
		return fmt.Errorf("invalid log format %q: must be console or json", c.Log.Format)
	}

	return nil
}

// OfflineFFmpeg returns the ffmpeg used for offline decode
func (c *Config) OfflineFFmpeg() string {
	if c.Decode.OfflineFFmpegPath != "" {
		return c.Decode.OfflineFFmpegPath
	}
	if c.Delegate.FFmpegPath != "" {
		return c.Delegate.FFmpegPath
	}
	return DefaultFFmpegPath
}
