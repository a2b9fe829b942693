package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"video-to-audio/application/transcode"
	"video-to-audio/domain/media"
)

func convertDeps(conv *mockConverter, files *mockFiles) ConvertDependencies {
	return ConvertDependencies{
		NewConverter: func(listener transcode.StateListener) (Converter, error) {
			conv.listen = listener
			return conv, nil
		},
		Files: files,
	}
}

func TestRunConvert_WritesOutput(t *testing.T) {
	files := newMockFiles()
	files.inputs["in/talk.mp4"] = media.NewInputMedia("talk.mp4", []byte("video"))
	conv := &mockConverter{
		blob: &media.OutputBlob{Data: []byte("RIFFdata"), MIMEType: media.MIMETypeWAV},
		states: []media.ConversionState{
			{IsConverting: true, Progress: 0},
			{IsConverting: true, Progress: 50},
			{Progress: 100},
		},
	}

	var out bytes.Buffer
	err := RunConvertWithDependencies(context.Background(), convertDeps(conv, files), ConvertOptions{
		Input:     "in/talk.mp4",
		Format:    "wav",
		OutputDir: "out",
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join("out", "talk.wav")
	if got := string(files.written[want]); got != "RIFFdata" {
		t.Errorf("written %q = %q, want RIFFdata", want, got)
	}
	if conv.format != media.FormatWAV {
		t.Errorf("format = %s, want wav", conv.format)
	}
	if !conv.closed {
		t.Error("converter was not closed")
	}
	for _, s := range []string{"Converting talk.mp4 to WAV", "50%", "100%", "Successfully created", media.MIMETypeWAV} {
		if !contains(out.String(), s) {
			t.Errorf("output missing %q:\n%s", s, out.String())
		}
	}
}

func TestRunConvert_FormatResolution(t *testing.T) {
	tests := []struct {
		name          string
		format        string
		defaultFormat string
		want          media.OutputFormat
	}{
		{name: "flag wins", format: "mp3-high", defaultFormat: "wav", want: media.FormatMP3High},
		{name: "legacy alias", format: "mp3-320", want: media.FormatMP3High},
		{name: "config default", defaultFormat: "wav", want: media.FormatWAV},
		{name: "fallback", want: media.FormatMP3Low},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := newMockFiles()
			files.inputs["a.mov"] = media.NewInputMedia("a.mov", []byte("x"))
			conv := &mockConverter{blob: &media.OutputBlob{Data: []byte("out"), MIMEType: tt.want.MIMEType()}}

			var out bytes.Buffer
			err := RunConvertWithDependencies(context.Background(), convertDeps(conv, files), ConvertOptions{
				Input:         "a.mov",
				Format:        tt.format,
				DefaultFormat: tt.defaultFormat,
			}, &out)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if conv.format != tt.want {
				t.Errorf("format = %s, want %s", conv.format, tt.want)
			}
			if _, ok := files.written["a."+tt.want.Extension()]; !ok {
				t.Errorf("expected a.%s to be written, got %v", tt.want.Extension(), files.written)
			}
		})
	}
}

func TestRunConvert_InvalidFormat(t *testing.T) {
	files := newMockFiles()
	files.inputs["a.mp4"] = media.NewInputMedia("a.mp4", []byte("x"))
	conv := &mockConverter{}

	err := RunConvertWithDependencies(context.Background(), convertDeps(conv, files), ConvertOptions{
		Input:  "a.mp4",
		Format: "ogg",
	}, &bytes.Buffer{})
	if err == nil || !contains(err.Error(), "unsupported output format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if conv.convert != 0 {
		t.Error("converter should not run")
	}
}

func TestRunConvert_ExistingOutput(t *testing.T) {
	files := newMockFiles()
	files.inputs["a.mp4"] = media.NewInputMedia("a.mp4", []byte("x"))
	files.existing["a.mp3"] = true
	conv := &mockConverter{blob: &media.OutputBlob{Data: []byte("new"), MIMEType: media.MIMETypeMP3}}

	err := RunConvertWithDependencies(context.Background(), convertDeps(conv, files), ConvertOptions{
		Input:  "a.mp4",
		Format: "mp3-low",
	}, &bytes.Buffer{})
	if err == nil || !contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if conv.convert != 0 {
		t.Error("converter should not run when the output exists")
	}

	err = RunConvertWithDependencies(context.Background(), convertDeps(conv, files), ConvertOptions{
		Input:     "a.mp4",
		Format:    "mp3-low",
		Overwrite: true,
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error with overwrite: %v", err)
	}
	if string(files.written["a.mp3"]) != "new" {
		t.Errorf("output not replaced: %q", files.written["a.mp3"])
	}
}

func TestRunConvert_Failures(t *testing.T) {
	convErr := media.NewDecodeError(errors.New("bad data"))

	tests := []struct {
		name        string
		input       string
		conv        *mockConverter
		newErr      error
		expectedErr string
	}{
		{name: "missing input flag", input: "", conv: &mockConverter{}, expectedErr: "input file is required"},
		{name: "input not found", input: "nope.mp4", conv: &mockConverter{}, expectedErr: "input file not found"},
		{name: "conversion fails", input: "a.mp4", conv: &mockConverter{err: convErr}, expectedErr: media.MessageDecodeFailed},
		{name: "converter cannot be built", input: "a.mp4", conv: &mockConverter{}, newErr: errors.New("invalid wav_route"), expectedErr: "invalid wav_route"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := newMockFiles()
			files.inputs["a.mp4"] = media.NewInputMedia("a.mp4", []byte("x"))
			deps := convertDeps(tt.conv, files)
			if tt.newErr != nil {
				deps.NewConverter = func(transcode.StateListener) (Converter, error) {
					return nil, tt.newErr
				}
			}

			err := RunConvertWithDependencies(context.Background(), deps, ConvertOptions{
				Input:  tt.input,
				Format: "wav",
			}, &bytes.Buffer{})
			if err == nil || !contains(err.Error(), tt.expectedErr) {
				t.Fatalf("expected error containing %q, got %v", tt.expectedErr, err)
			}
			if len(files.written) != 0 {
				t.Errorf("nothing should be written, got %v", files.written)
			}
		})
	}
}

func TestRunConvert_ConverterClosedOnFailure(t *testing.T) {
	files := newMockFiles()
	files.inputs["a.mp4"] = media.NewInputMedia("a.mp4", []byte("x"))
	conv := &mockConverter{err: media.NewEncodeError(errors.New("exit status 1"))}

	_ = RunConvertWithDependencies(context.Background(), convertDeps(conv, files), ConvertOptions{
		Input:  "a.mp4",
		Format: "mp3-high",
	}, &bytes.Buffer{})
	if !conv.closed {
		t.Error("converter should be closed after a failed conversion")
	}
}

func TestResolveFormat_Prompt(t *testing.T) {
	prompter := &mockPrompter{selects: []string{"WAV (Lossless • Largest file)"}}
	deps := ConvertDependencies{Prompter: prompter, Interactive: true}

	got, err := resolveFormat(deps, ConvertOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != media.FormatWAV {
		t.Errorf("format = %s, want wav", got)
	}
	if len(prompter.options) != 1 || len(prompter.options[0]) != len(media.AllFormats) {
		t.Errorf("expected one prompt listing every format, got %v", prompter.options)
	}

	prompter = &mockPrompter{err: errors.New("interrupt")}
	deps.Prompter = prompter
	if _, err := resolveFormat(deps, ConvertOptions{}); err == nil || !contains(err.Error(), "prompt cancelled") {
		t.Errorf("expected prompt cancelled, got %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
