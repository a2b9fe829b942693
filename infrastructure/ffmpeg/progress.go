package ffmpeg

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"time"

	"video-to-audio/domain/media"
)

var (
	durationRegex = regexp.MustCompile(`Duration:\s*(\d{2,}:\d{2}:\d{2}(?:\.\d+)?)`)
	timeRegex     = regexp.MustCompile(`time=\s*(\d{2,}:\d{2}:\d{2}(?:\.\d+)?)`)
)

const tailLines = 20

// ProgressWriter consumes ffmpeg stderr and reports encode progress as a
// fraction of the input duration. ffmpeg terminates status lines with \r,
// so both \r and \n end a line. The last lines are kept for error reports.
type ProgressWriter struct {
	mu       sync.Mutex
	handler  func(media.ProgressEvent)
	duration time.Duration
	partial  []byte
	tail     []string
}

// NewProgressWriter creates a writer that calls handler for every status line
func NewProgressWriter(handler func(media.ProgressEvent)) *ProgressWriter {
	return &ProgressWriter{handler: handler}
}

// Write implements io.Writer
func (w *ProgressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexAny(w.partial, "\r\n")
		if i < 0 {
			break
		}
		line := string(w.partial[:i])
		w.partial = w.partial[i+1:]
		w.handleLine(line)
	}
	return len(p), nil
}

func (w *ProgressWriter) handleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	w.tail = append(w.tail, line)
	if len(w.tail) > tailLines {
		w.tail = w.tail[len(w.tail)-tailLines:]
	}

	if w.duration == 0 {
		if m := durationRegex.FindStringSubmatch(line); m != nil {
			if d, err := media.ParseTimestamp(m[1]); err == nil {
				w.duration = d
			}
			return
		}
	}

	if w.duration <= 0 || w.handler == nil {
		return
	}
	if m := timeRegex.FindStringSubmatch(line); m != nil {
		elapsed, err := media.ParseTimestamp(m[1])
		if err != nil {
			return
		}
		fraction := float64(elapsed) / float64(w.duration)
		w.handler(media.ProgressEvent{Progress: min(1, max(0, fraction))})
	}
}

// Duration returns the input duration reported by ffmpeg, zero if not yet seen
func (w *ProgressWriter) Duration() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.duration
}

// Tail returns the most recent stderr lines joined by newlines
func (w *ProgressWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	lines := w.tail
	if len(w.partial) > 0 {
		lines = append(append([]string(nil), lines...), strings.TrimSpace(string(w.partial)))
	}
	return strings.Join(lines, "\n")
}
