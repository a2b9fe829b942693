package transcode

import "testing"

func TestProgressTracker_Monotonic(t *testing.T) {
	var got []int
	tr := newProgressTracker(func(p int) { got = append(got, p) })

	for _, p := range []int{5, 15, 10, 15, 50, -3, 120, 90} {
		tr.Set(p)
	}

	want := []int{5, 15, 50, 100}
	if len(got) != len(want) {
		t.Fatalf("reported %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if tr.Last() != 100 {
		t.Errorf("Last() = %d, want 100", tr.Last())
	}
}

func TestProgressTracker_StopDropsUpdates(t *testing.T) {
	var got []int
	tr := newProgressTracker(func(p int) { got = append(got, p) })

	tr.Set(25)
	tr.Stop()
	tr.Set(50)
	tr.SetFraction(1)

	if len(got) != 1 || got[0] != 25 {
		t.Errorf("reported %v, want [25]", got)
	}
}

func TestFractionToPercent(t *testing.T) {
	tests := []struct {
		fraction float64
		want     int
	}{
		{0, 0},
		{0.004, 0},
		{0.006, 1},
		{0.333, 33},
		{0.5, 50},
		{0.996, 100},
		{1, 100},
		{1.7, 100},
		{-0.2, 0},
	}

	for _, tt := range tests {
		if got := fractionToPercent(tt.fraction); got != tt.want {
			t.Errorf("fractionToPercent(%v) = %d, want %d", tt.fraction, got, tt.want)
		}
	}
}
