package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"video-to-audio/application/transcode"
	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/filesystem"
	"video-to-audio/infrastructure/terminal"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Converter runs a single conversion and releases its resources on Close
type Converter interface {
	Convert(ctx context.Context, in media.InputMedia, format media.OutputFormat) (*media.OutputBlob, error)
	Close(ctx context.Context) error
}

// ConvertDependencies holds the dependencies for the convert command
type ConvertDependencies struct {
	// NewConverter builds a converter publishing state to listener
	NewConverter func(listener transcode.StateListener) (Converter, error)
	Files        media.FileChecker
	Prompter     Prompter
	// Interactive enables the progress view and the format prompt
	Interactive bool
}

// ConvertOptions holds the options for the convert command
type ConvertOptions struct {
	Input         string
	Format        string
	DefaultFormat string
	OutputDir     string
	Overwrite     bool
}

var (
	convertInput     string
	convertFormat    string
	convertOutputDir string
	convertNoTUI     bool
	convertOverwrite bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Extract audio from a media file",
	Long: `Extracts the audio from a media file and writes it next to the
configured output directory as MP3 or WAV.

The output file is named after the input with the new extension.

Formats:
  mp3-low   128kbps, smaller file
  mp3-high  320kbps, best quality
  wav       lossless, largest file

Example:
  video-to-audio convert --input sermon.mp4
  video-to-audio convert --input sermon.mp4 --format wav --output-dir ~/audio`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "Input media file (required)")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "Output format: mp3-low, mp3-high, wav")
	convertCmd.Flags().StringVarP(&convertOutputDir, "output-dir", "o", "", "Output directory (default from config)")
	convertCmd.Flags().BoolVar(&convertNoTUI, "no-tui", false, "Print plain progress lines instead of a progress bar")
	convertCmd.Flags().BoolVar(&convertOverwrite, "overwrite", false, "Replace an existing output file")
	_ = convertCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	c, err := GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	outputDir := convertOutputDir
	if outputDir == "" {
		outputDir = c.Output.Directory
	}

	deps := ConvertDependencies{
		NewConverter: func(listener transcode.StateListener) (Converter, error) {
			return newService(c, logger, listener)
		},
		Files:       filesystem.NewChecker(),
		Prompter:    DefaultPrompter,
		Interactive: !convertNoTUI && term.IsTerminal(int(os.Stdout.Fd())),
	}

	opts := ConvertOptions{
		Input:         convertInput,
		Format:        convertFormat,
		DefaultFormat: c.Output.Format,
		OutputDir:     outputDir,
		Overwrite:     convertOverwrite || c.Output.Overwrite,
	}

	return RunConvertWithDependencies(cmd.Context(), deps, opts, cmd.OutOrStdout())
}

// RunConvertWithDependencies runs the convert command with injected dependencies
func RunConvertWithDependencies(ctx context.Context, deps ConvertDependencies, opts ConvertOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Input == "" {
		return fmt.Errorf("input file is required")
	}

	in, err := deps.Files.ReadInput(opts.Input)
	if err != nil {
		return err
	}

	format, err := resolveFormat(deps, opts)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(opts.OutputDir, in.OutputFilename(format))
	if !opts.Overwrite && deps.Files.Exists(outputPath) {
		return fmt.Errorf("output file already exists: %s (use --overwrite to replace it)", outputPath)
	}

	fmt.Fprintf(out, "Converting %s to %s...\n", in.Name, format.Label())

	blob, err := convertWithProgress(ctx, deps, in, format, out)
	if err != nil {
		return err
	}

	if err := deps.Files.WriteOutput(outputPath, blob.Data, opts.Overwrite); err != nil {
		return err
	}

	fmt.Fprintf(out, "Successfully created: %s (%s, %s)\n", outputPath, formatBytes(blob.Size()), blob.MIMEType)
	return nil
}

// resolveFormat picks the flag value, then the configured default, then asks
func resolveFormat(deps ConvertDependencies, opts ConvertOptions) (media.OutputFormat, error) {
	if opts.Format != "" {
		return media.ParseOutputFormat(opts.Format)
	}
	if opts.DefaultFormat != "" {
		return media.ParseOutputFormat(opts.DefaultFormat)
	}
	if !deps.Interactive || deps.Prompter == nil {
		return media.FormatMP3Low, nil
	}

	labels := make([]string, 0, len(media.AllFormats))
	byLabel := make(map[string]media.OutputFormat, len(media.AllFormats))
	for _, f := range media.AllFormats {
		label := fmt.Sprintf("%s (%s)", f.Label(), f.Description())
		labels = append(labels, label)
		byLabel[label] = f
	}

	choice, err := deps.Prompter.Select("Output format?", labels, labels[0])
	if err != nil {
		return "", fmt.Errorf("prompt cancelled")
	}
	format, ok := byLabel[choice]
	if !ok {
		return "", fmt.Errorf("unknown format selection: %s", choice)
	}
	return format, nil
}

func convertWithProgress(ctx context.Context, deps ConvertDependencies, in media.InputMedia, format media.OutputFormat, out io.Writer) (*media.OutputBlob, error) {
	run := func(listener transcode.StateListener) (*media.OutputBlob, error) {
		conv, err := deps.NewConverter(listener)
		if err != nil {
			return nil, err
		}
		defer func() { _ = conv.Close(context.WithoutCancel(ctx)) }()
		return conv.Convert(ctx, in, format)
	}

	if !deps.Interactive {
		reporter := terminal.NewLineReporter(out)
		return run(reporter.Report)
	}

	var blob *media.OutputBlob
	err := terminal.Run(out, in.Name, func(listen func(media.ConversionState)) error {
		var err error
		blob, err = run(listen)
		return err
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// formatBytes renders a byte count for humans
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
