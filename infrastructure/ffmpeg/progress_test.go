package ffmpeg

import (
	"testing"
	"time"

	"video-to-audio/domain/media"
)

func TestProgressWriter_ReportsFractionOfDuration(t *testing.T) {
	var events []float64
	w := NewProgressWriter(func(e media.ProgressEvent) {
		events = append(events, e.Progress)
	})

	_, _ = w.Write([]byte("Input #0, mov,mp4, from 'input.mp4':\n  Duration: 00:00:10.00, start: 0.000000, bitrate: 128 kb/s\n"))
	_, _ = w.Write([]byte("size=      64kB time=00:00:02.50 bitrate= 209.7kbits/s speed=50x\r"))
	_, _ = w.Write([]byte("size=     128kB time=00:00:05.00 bitrate= 209.7kbits/s speed=50x\r"))

	if w.Duration() != 10*time.Second {
		t.Fatalf("Duration() = %v, want 10s", w.Duration())
	}
	want := []float64{0.25, 0.5}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestProgressWriter_LinesSplitAcrossWrites(t *testing.T) {
	var events []float64
	w := NewProgressWriter(func(e media.ProgressEvent) {
		events = append(events, e.Progress)
	})

	chunks := []string{"  Dura", "tion: 00:00:04.00, st", "art: 0\nsize=1kB ti", "me=00:00:01.00 bi", "trate=1\r"}
	for _, c := range chunks {
		_, _ = w.Write([]byte(c))
	}

	if len(events) != 1 || events[0] != 0.25 {
		t.Errorf("events = %v, want [0.25]", events)
	}
}

func TestProgressWriter_ClampsOvershoot(t *testing.T) {
	var last float64
	w := NewProgressWriter(func(e media.ProgressEvent) {
		last = e.Progress
	})

	_, _ = w.Write([]byte("Duration: 00:00:01.00\nsize=1kB time=00:00:01.20 bitrate=1\n"))

	if last != 1 {
		t.Errorf("progress = %v, want 1", last)
	}
}

func TestProgressWriter_NoDurationNoEvents(t *testing.T) {
	called := false
	w := NewProgressWriter(func(e media.ProgressEvent) {
		called = true
	})

	_, _ = w.Write([]byte("Duration: N/A, bitrate: N/A\nsize=1kB time=00:00:01.00 bitrate=1\n"))

	if called {
		t.Error("handler should not be called without a known duration")
	}
}

func TestProgressWriter_Tail(t *testing.T) {
	w := NewProgressWriter(nil)

	for i := 0; i < tailLines+5; i++ {
		_, _ = w.Write([]byte("line\n"))
	}
	_, _ = w.Write([]byte("input.xyz: Invalid data found when processing input"))

	tail := w.Tail()
	if !contains(tail, "Invalid data found") {
		t.Errorf("Tail() should include the unterminated last line, got %q", tail)
	}

	lines := 1
	for _, r := range tail {
		if r == '\n' {
			lines++
		}
	}
	if lines != tailLines+1 {
		t.Errorf("Tail() has %d lines, want %d", lines, tailLines+1)
	}
}
