package models

import "time"

// DateWindow is a bounded [Start, End) date range used to keep listing
// queries under the remote API's maximum span. Windows are ephemeral: they
// are generated per run and never persisted.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// String renders the window in the YYYY-MM-DD form the listing API consumes.
func (w DateWindow) String() string {
	return w.Start.Format("2006-01-02") + ".." + w.End.Format("2006-01-02")
}
