package media

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// timestampRegex matches HH:MM:SS with an optional fractional part, as printed by ffmpeg
var timestampRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})(?:\.(\d+))?$`)

// ParseTimestamp parses an ffmpeg clock string (HH:MM:SS or HH:MM:SS.ff) into a duration
func ParseTimestamp(s string) (time.Duration, error) {
	matches := timestampRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid timestamp format %q: expected HH:MM:SS[.ff]", s)
	}

	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])

	if minutes > 59 {
		return 0, fmt.Errorf("invalid minutes %d: must be 0-59", minutes)
	}
	if seconds > 59 {
		return 0, fmt.Errorf("invalid seconds %d: must be 0-59", seconds)
	}

	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second

	if frac := matches[4]; frac != "" {
		// "5" -> 500ms, "12" -> 120ms, "123456" -> 123.456ms
		f, _ := strconv.ParseFloat("0."+frac, 64)
		d += time.Duration(f * float64(time.Second))
	}

	return d, nil
}

// FormatTimestamp renders a duration as HH:MM:SS
func FormatTimestamp(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
