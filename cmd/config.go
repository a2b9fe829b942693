package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"video-to-audio/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long: `Show and change settings and accepted input extensions in the configuration file.

Examples:
  video-to-audio config show
  video-to-audio config get encode.wav_route
  video-to-audio config set delegate.backend wasm
  video-to-audio config ext add .mkv`,
}

var configExtCmd = &cobra.Command{
	Use:   "ext",
	Short: "Manage accepted input extensions",
	Long: `Restrict which input files are accepted. An empty list accepts every file.

Examples:
  video-to-audio config ext add .mp4
  video-to-audio config ext list
  video-to-audio config ext remove .mp4`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configExtCmd)

	configExtCmd.AddCommand(configExtAddCmd)
	configExtCmd.AddCommand(configExtListCmd)
	configExtCmd.AddCommand(configExtRemoveCmd)
}

func configPath() string {
	if cfgFile == "" {
		return defaultConfigPath
	}
	return cfgFile
}

func loadedConfig() (*config.Config, error) {
	c, err := GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return c, nil
}

// ensureConfigDir creates the directory a first save writes into
func ensureConfigDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(c, DefaultOutput)
	},
}

// RunConfigShowWithDependencies runs the show command with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, out OutputWriter) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// --- GET command ---

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigGetWithDependencies(c, configPath(), args[0], DefaultOutput)
	},
}

// RunConfigGetWithDependencies runs the get command with injected dependencies
func RunConfigGetWithDependencies(cfg *config.Config, path, key string, out OutputWriter) error {
	value, err := config.NewConfigManager(cfg, path).Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a single setting",
	Long: `Change a single setting and save the configuration file.
The change is rejected if it would leave the configuration invalid.

Run 'video-to-audio config keys' for the list of keys.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(c, configPath(), args[0], args[1], DefaultOutput)
	},
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(cfg *config.Config, path, key, value string, out OutputWriter) error {
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	mgr := config.NewConfigManager(cfg, path)
	if err := mgr.Set(key, value); err != nil {
		return err
	}
	current, _ := mgr.Get(key)
	fmt.Fprintf(out, "Set %s = %s\n", key, current)
	return nil
}

// --- KEYS command ---

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys with their current values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigKeysWithDependencies(c, configPath(), DefaultOutput)
	},
}

// RunConfigKeysWithDependencies runs the keys command with injected dependencies
func RunConfigKeysWithDependencies(cfg *config.Config, path string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, path)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, key := range config.Keys() {
		value, err := mgr.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", key, value)
	}
	return w.Flush()
}

// --- EXT commands ---

var configExtAddCmd = &cobra.Command{
	Use:   "add <extension>",
	Short: "Accept an input extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigExtAddWithDependencies(c, configPath(), args[0], DefaultOutput)
	},
}

// RunConfigExtAddWithDependencies runs the ext add command with injected dependencies
func RunConfigExtAddWithDependencies(cfg *config.Config, path, ext string, out OutputWriter) error {
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	if err := config.NewConfigManager(cfg, path).AddExtension(ext); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added extension %q\n", ext)
	return nil
}

var configExtListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accepted input extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigExtListWithDependencies(c, configPath(), DefaultOutput)
	},
}

// RunConfigExtListWithDependencies runs the ext list command with injected dependencies
func RunConfigExtListWithDependencies(cfg *config.Config, path string, out OutputWriter) error {
	exts := config.NewConfigManager(cfg, path).ListExtensions()
	if len(exts) == 0 {
		fmt.Fprintln(out, "No extension filter configured. All files are accepted.")
		return nil
	}
	for _, ext := range exts {
		fmt.Fprintln(out, ext)
	}
	return nil
}

var configExtRemoveCmd = &cobra.Command{
	Use:   "remove <extension>",
	Short: "Stop accepting an input extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigExtRemoveWithDependencies(c, configPath(), args[0], DefaultOutput)
	},
}

// RunConfigExtRemoveWithDependencies runs the ext remove command with injected dependencies
func RunConfigExtRemoveWithDependencies(cfg *config.Config, path, ext string, out OutputWriter) error {
	if err := config.NewConfigManager(cfg, path).RemoveExtension(ext); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed extension %q\n", ext)
	return nil
}
