package media

import (
	"fmt"
	"strings"
)

// OutputFormat selects the target codec and container for a conversion
type OutputFormat string

const (
	// FormatMP3Low is MP3 at 128 kbps
	FormatMP3Low OutputFormat = "mp3-low"
	// FormatMP3High is MP3 at 320 kbps
	FormatMP3High OutputFormat = "mp3-high"
	// FormatWAV is lossless 16-bit PCM in a WAV container
	FormatWAV OutputFormat = "wav"
)

// MIME types attached to output blobs
const (
	MIMETypeMP3 = "audio/mpeg"
	MIMETypeWAV = "audio/wav"
)

// Codec identifiers understood by the codec delegate
const (
	CodecMP3 = "libmp3lame"
	CodecPCM = "pcm_s16le"
)

// AllFormats lists the supported output formats in display order
var AllFormats = []OutputFormat{FormatMP3Low, FormatMP3High, FormatWAV}

var formatAliases = map[string]OutputFormat{
	"mp3":      FormatMP3Low,
	"mp3-128":  FormatMP3Low,
	"mp3-low":  FormatMP3Low,
	"mp3-320":  FormatMP3High,
	"mp3-high": FormatMP3High,
	"mp3-hd":   FormatMP3High,
	"wav":      FormatWAV,
}

// ParseOutputFormat parses a format name, accepting the legacy bitrate aliases
func ParseOutputFormat(s string) (OutputFormat, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q: expected one of mp3-low, mp3-high, wav", s)
}

// IsValid reports whether f is one of the supported formats
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatMP3Low, FormatMP3High, FormatWAV:
		return true
	}
	return false
}

// IsCompressed reports whether the format is encoded by the codec delegate by default
func (f OutputFormat) IsCompressed() bool {
	return f == FormatMP3Low || f == FormatMP3High
}

// Bitrate returns the delegate bitrate argument, empty for lossless output
func (f OutputFormat) Bitrate() string {
	switch f {
	case FormatMP3Low:
		return "128k"
	case FormatMP3High:
		return "320k"
	}
	return ""
}

// Codec returns the delegate audio codec identifier
func (f OutputFormat) Codec() string {
	if f.IsCompressed() {
		return CodecMP3
	}
	return CodecPCM
}

// Extension returns the file extension without the leading dot
func (f OutputFormat) Extension() string {
	if f.IsCompressed() {
		return "mp3"
	}
	return "wav"
}

// MIMEType returns the MIME type of encoded output
func (f OutputFormat) MIMEType() string {
	if f.IsCompressed() {
		return MIMETypeMP3
	}
	return MIMETypeWAV
}

// Label is the short display name used by format selectors
func (f OutputFormat) Label() string {
	switch f {
	case FormatMP3Low:
		return "MP3"
	case FormatMP3High:
		return "MP3 HD"
	case FormatWAV:
		return "WAV"
	}
	return string(f)
}

// Description is the one-line summary shown next to the label
func (f OutputFormat) Description() string {
	switch f {
	case FormatMP3Low:
		return "128kbps • Smaller file"
	case FormatMP3High:
		return "320kbps • Best quality"
	case FormatWAV:
		return "Lossless • Largest file"
	}
	return ""
}

func (f OutputFormat) String() string {
	return string(f)
}
