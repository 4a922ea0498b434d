package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowsCoverRangeExactly(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		months int
		want   int
	}{
		{"single window", date(2024, time.January, 1), date(2024, time.March, 1), 6, 1},
		{"exact multiple", date(2023, time.January, 1), date(2024, time.January, 1), 6, 2},
		{"remainder window", date(2023, time.January, 1), date(2023, time.May, 15), 2, 3},
		{"one month windows", date(2024, time.January, 1), date(2024, time.April, 1), 1, 3},
		{"multi year", date(2020, time.January, 1), date(2024, time.January, 1), 6, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows := Windows(tt.start, tt.end, tt.months)
			if len(windows) != tt.want {
				t.Fatalf("got %d windows, want %d", len(windows), tt.want)
			}

			// Contiguous, non-overlapping, full coverage, oldest-first.
			if !windows[0].Start.Equal(tt.start) {
				t.Errorf("first window starts at %v, want %v", windows[0].Start, tt.start)
			}
			if !windows[len(windows)-1].End.Equal(tt.end) {
				t.Errorf("last window ends at %v, want %v", windows[len(windows)-1].End, tt.end)
			}
			for i, w := range windows {
				if !w.Start.Before(w.End) {
					t.Errorf("window %d is empty or inverted: %v", i, w)
				}
				if i > 0 && !w.Start.Equal(windows[i-1].End) {
					t.Errorf("gap or overlap between window %d and %d", i-1, i)
				}
				// Each window spans at most the configured number of months.
				if limit := addMonths(w.Start, tt.months); w.End.After(limit) {
					t.Errorf("window %d spans more than %d months: %v", i, tt.months, w)
				}
			}
		})
	}
}

func TestWindowsInvalidRange(t *testing.T) {
	if got := Windows(date(2024, time.May, 1), date(2024, time.January, 1), 3); got != nil {
		t.Errorf("expected nil for inverted range, got %d windows", len(got))
	}
	if got := Windows(date(2024, time.May, 1), date(2024, time.May, 1), 3); got != nil {
		t.Errorf("expected nil for empty range, got %d windows", len(got))
	}
}

func TestAddMonthsClampsDay(t *testing.T) {
	tests := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{date(2024, time.March, 31), 1, date(2024, time.April, 30)},
		{date(2024, time.November, 15), 2, date(2025, time.January, 15)},
	}
	for _, tt := range tests {
		if got := addMonths(tt.in, tt.months); !got.Equal(tt.want) {
			t.Errorf("addMonths(%v, %d) = %v, want %v", tt.in, tt.months, got, tt.want)
		}
	}
}

func TestWindowsMonthEndStartStaysContiguous(t *testing.T) {
	// A Jan 31 start exercises day clamping across several windows.
	windows := Windows(date(2023, time.January, 31), date(2023, time.July, 1), 1)
	for i := 1; i < len(windows); i++ {
		if !windows[i].Start.Equal(windows[i-1].End) {
			t.Fatalf("windows not contiguous at %d: %v then %v", i, windows[i-1], windows[i])
		}
	}
	if !windows[len(windows)-1].End.Equal(date(2023, time.July, 1)) {
		t.Fatalf("coverage ends at %v", windows[len(windows)-1].End)
	}
}
