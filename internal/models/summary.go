package models

import "time"

// StatusCount is one row of the inventory status breakdown.
type StatusCount struct {
	Status Status
	Count  int
}

// KindSummary aggregates discovered items per recording kind.
type KindSummary struct {
	Kind     RecordingKind
	Count    int
	Earliest time.Time
	Latest   time.Time
}

// YearCount reports how many items of a kind started in a given year. A year
// with zero rows across all kinds usually points at a window or permission
// problem rather than transient noise.
type YearCount struct {
	Year  int
	Kind  RecordingKind
	Count int
}

// StatusTotals accumulates terminal outcomes of a download phase.
type StatusTotals struct {
	Downloaded int
	Failed     int
	Skipped    int
}

// Total returns the number of items the totals cover.
func (t StatusTotals) Total() int {
	return t.Downloaded + t.Failed + t.Skipped
}
