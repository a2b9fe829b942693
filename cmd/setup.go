package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if defaultValue != "" {
		prompt.Default = defaultValue
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through choosing the output directory, the
default output format, and the codec engine used for MP3 encoding.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, cmd.OutOrStdout())
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out io.Writer) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to video-to-audio setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptOutput(prompter, cfg); err != nil {
		return err
	}

	if err := promptDelegate(prompter, cfg); err != nil {
		return err
	}

	if err := promptLogging(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptOutput(prompter Prompter, cfg *config.Config) error {
	dir, err := prompter.Input("Where should converted audio files go?", cfg.Output.Directory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if dir == "" {
		return fmt.Errorf("output directory is required")
	}
	cfg.Output.Directory = dir

	options := make([]string, 0, len(media.AllFormats))
	for _, f := range media.AllFormats {
		options = append(options, f.String())
	}
	format, err := prompter.Select("Default output format?", options, media.FormatMP3Low.String())
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Output.Format = format

	overwrite, err := prompter.Confirm("Overwrite existing output files?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Output.Overwrite = overwrite
	return nil
}

func promptDelegate(prompter Prompter, cfg *config.Config) error {
	backend, err := prompter.Select("Codec engine for MP3 encoding?",
		[]string{config.BackendExec, config.BackendWASM}, config.BackendExec)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Delegate.Backend = backend

	switch backend {
	case config.BackendWASM:
		module, err := prompter.Input("Path to the ffmpeg WebAssembly module?", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if module == "" {
			return fmt.Errorf("wasm module path is required")
		}
		cfg.Delegate.WASMModule = module
	default:
		path, err := prompter.Input("Path to the ffmpeg binary?", config.DefaultFFmpegPath)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if path == "" {
			path = config.DefaultFFmpegPath
		}
		cfg.Delegate.FFmpegPath = path
	}

	route, err := prompter.Select("How should WAV files be produced?",
		[]string{config.RoutePCM, config.RouteDelegate}, config.RoutePCM)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Encode.WAVRoute = route
	return nil
}

func promptLogging(prompter Prompter, cfg *config.Config) error {
	level, err := prompter.Select("Log level?", []string{"debug", "info", "warn", "error"}, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Log.Level = level
	return nil
}
