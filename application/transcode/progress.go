package transcode

import (
	"math"
	"sync"
)

// PCM path milestones. Decode milestones live in decoder.go.
const (
	ProgressInputRead   = 5
	ProgressBufferReady = 15
	ProgressCanonical   = 75
	ProgressEncoding    = 85
	ProgressEncoded     = 95
	ProgressComplete    = 100
)

// progressTracker forwards a non-decreasing percentage sequence. Once
// stopped it drops every further update.
type progressTracker struct {
	mu      sync.Mutex
	last    int
	stopped bool
	apply   func(int)
}

func newProgressTracker(apply func(int)) *progressTracker {
	return &progressTracker{apply: apply}
}

// Set reports percent if it advances past the last reported value
func (t *progressTracker) Set(percent int) {
	percent = min(100, max(0, percent))

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || percent <= t.last {
		return
	}
	t.last = percent
	t.apply(percent)
}

// SetFraction maps a delegate fraction in [0, 1] to a rounded percentage
func (t *progressTracker) SetFraction(fraction float64) {
	t.Set(fractionToPercent(fraction))
}

// Stop freezes the tracker
func (t *progressTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Last returns the last reported percentage
func (t *progressTracker) Last() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func fractionToPercent(fraction float64) int {
	if math.IsNaN(fraction) {
		return 0
	}
	return int(math.Round(min(1, max(0, fraction)) * 100))
}
