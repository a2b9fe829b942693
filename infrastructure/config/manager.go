package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Errors for config management
var (
	ErrUnknownKey        = errors.New("unknown config key")
	ErrInvalidValue      = errors.New("invalid config value")
	ErrDuplicateKey      = errors.New("entry already exists")
	ErrExtensionNotFound = errors.New("extension not found")
)

// setting binds a dotted key to a field of Config
type setting struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringSetting(field func(c *Config) *string) setting {
	return setting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

func intSetting(field func(c *Config) *int) setting {
	return setting{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
			}
			*field(c) = n
			return nil
		},
	}
}

func int64Setting(field func(c *Config) *int64) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatInt(*field(c), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
			}
			*field(c) = n
			return nil
		},
	}
}

func boolSetting(field func(c *Config) *bool) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
			}
			*field(c) = b
			return nil
		},
	}
}

var settings = map[string]setting{
	"limits.pcm_max_bytes":       int64Setting(func(c *Config) *int64 { return &c.Limits.PCMMaxBytes }),
	"limits.delegate_max_bytes":  int64Setting(func(c *Config) *int64 { return &c.Limits.DelegateMaxBytes }),
	"delegate.backend":           stringSetting(func(c *Config) *string { return &c.Delegate.Backend }),
	"delegate.ffmpeg_path":       stringSetting(func(c *Config) *string { return &c.Delegate.FFmpegPath }),
	"delegate.wasm_module":       stringSetting(func(c *Config) *string { return &c.Delegate.WASMModule }),
	"delegate.workspace_dir":     stringSetting(func(c *Config) *string { return &c.Delegate.WorkspaceDir }),
	"decode.offline_ffmpeg_path": stringSetting(func(c *Config) *string { return &c.Decode.OfflineFFmpegPath }),
	"decode.offline_sample_rate": intSetting(func(c *Config) *int { return &c.Decode.OfflineSampleRate }),
	"decode.offline_channels":    intSetting(func(c *Config) *int { return &c.Decode.OfflineChannels }),
	"decode.offline_seconds":     intSetting(func(c *Config) *int { return &c.Decode.OfflineSeconds }),
	"encode.wav_route":           stringSetting(func(c *Config) *string { return &c.Encode.WAVRoute }),
	"encode.chunk_size":          intSetting(func(c *Config) *int { return &c.Encode.ChunkSize }),
	"encode.yield_every":         intSetting(func(c *Config) *int { return &c.Encode.YieldEvery }),
	"output.directory":           stringSetting(func(c *Config) *string { return &c.Output.Directory }),
	"output.format":              stringSetting(func(c *Config) *string { return &c.Output.Format }),
	"output.overwrite":           boolSetting(func(c *Config) *bool { return &c.Output.Overwrite }),
	"log.level":                  stringSetting(func(c *Config) *string { return &c.Log.Level }),
	"log.format":                 stringSetting(func(c *Config) *string { return &c.Log.Format }),
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ConfigManager provides read and update operations for config entries
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// --- Scalar settings ---

// Get returns the value of a dotted key such as "encode.wav_route"
func (m *ConfigManager) Get(key string) (string, error) {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return s.get(m.config), nil
}

// Set updates a dotted key, validates the result and saves. An invalid
// value leaves the config unchanged.
func (m *ConfigManager) Set(key, value string) error {
	key = normalizeKey(key)
	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	return m.apply(func(c *Config) error {
		return s.set(c, strings.TrimSpace(value))
	})
}

// --- Accepted extensions ---

// AddExtension adds an accepted input extension such as ".mkv"
func (m *ConfigManager) AddExtension(ext string) error {
	ext = normalizeExtension(ext)
	if ext == "" {
		return fmt.Errorf("extension is required")
	}

	if slices.Contains(m.config.Limits.AcceptedExtensions, ext) {
		return fmt.Errorf("%w: extension %q", ErrDuplicateKey, ext)
	}

	return m.apply(func(c *Config) error {
		c.Limits.AcceptedExtensions = append(c.Limits.AcceptedExtensions, ext)
		return nil
	})
}

// ListExtensions returns the accepted input extensions
func (m *ConfigManager) ListExtensions() []string {
	return slices.Clone(m.config.Limits.AcceptedExtensions)
}

// RemoveExtension removes an accepted input extension
func (m *ConfigManager) RemoveExtension(ext string) error {
	ext = normalizeExtension(ext)
	i := slices.Index(m.config.Limits.AcceptedExtensions, ext)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrExtensionNotFound, ext)
	}

	return m.apply(func(c *Config) error {
		c.Limits.AcceptedExtensions = slices.Delete(c.Limits.AcceptedExtensions, i, i+1)
		return nil
	})
}

// apply mutates a copy, validates it, then commits and saves
func (m *ConfigManager) apply(fn func(c *Config) error) error {
	next := *m.config
	next.Limits.AcceptedExtensions = slices.Clone(m.config.Limits.AcceptedExtensions)

	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	*m.config = next
	return Save(m.config, m.configPath)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
