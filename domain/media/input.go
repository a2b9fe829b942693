package media

import (
	"path/filepath"
	"strings"
)

// DefaultBaseName is used when the input name has nothing left after stripping the extension
const DefaultBaseName = "audio"

// DefaultAcceptedExtensions are the video containers accepted by the upload flow
var DefaultAcceptedExtensions = []string{".mp4", ".mkv", ".mov", ".avi", ".webm"}

// InputMedia is a caller-supplied media file held in memory
type InputMedia struct {
	Name string
	Data []byte
}

// NewInputMedia creates an InputMedia. The data is not copied.
func NewInputMedia(name string, data []byte) InputMedia {
	return InputMedia{Name: name, Data: data}
}

// Size returns the byte length of the input
func (m InputMedia) Size() int64 {
	return int64(len(m.Data))
}

// Extension returns the lower-cased last extension including the dot, or "" if there is none
func (m InputMedia) Extension() string {
	if m.Name == "" {
		return ""
	}
	ext := filepath.Ext(filepath.Base(m.Name))
	if ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// BaseName returns the file name with its last extension removed
func (m InputMedia) BaseName() string {
	name := filepath.Base(m.Name)
	if name == "." || name == string(filepath.Separator) {
		return DefaultBaseName
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		return DefaultBaseName
	}
	return base
}

// OutputFilename returns the download name for the converted file
func (m InputMedia) OutputFilename(format OutputFormat) string {
	return m.BaseName() + "." + format.Extension()
}

// HasAcceptedExtension reports whether the input extension is in the accepted list.
// An empty list accepts everything.
func (m InputMedia) HasAcceptedExtension(accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	ext := m.Extension()
	for _, a := range accepted {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}
