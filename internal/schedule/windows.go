// Package schedule splits an overall backup date range into bounded windows
// so listing queries stay under the remote API's maximum span per request.
package schedule

import (
	"time"

	"github.com/zoomvault/zoomvault/internal/models"
)

// Windows splits [start, end) into consecutive, non-overlapping windows of at
// most months calendar months each, ordered oldest-first. The windows cover
// the full interval with no gaps. Returns nil when start is not before end.
func Windows(start, end time.Time, months int) []models.DateWindow {
	if !start.Before(end) {
		return nil
	}
	if months < 1 {
		months = 1
	}

	var windows []models.DateWindow
	for cur := start; cur.Before(end); {
		next := addMonths(cur, months)
		if next.After(end) {
			next = end
		}
		windows = append(windows, models.DateWindow{Start: cur, End: next})
		cur = next
	}
	return windows
}

// addMonths advances t by the given number of calendar months, clamping the
// day to the end of the target month. Plain AddDate would roll Jan 31 + 1
// month over into March and overshoot the allowed span.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}
