package report

import (
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// Symbolic date range labels.
const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeThisWeek  = "this_week"
	RangeLastWeek  = "last_week"
	RangeThisMonth = "this_month"
)

// ResolveRange turns a symbolic label into concrete inclusive bounds
// relative to today. Weeks start Monday. An empty or unrecognized label
// passes the caller-supplied bounds through unchanged.
//
// Pure function: deterministic given today.
func ResolveRange(label, start, end string, today time.Time) (string, string) {
	day := func(t time.Time) string { return t.Format(model.DateLayout) }

	switch label {
	case RangeToday:
		return day(today), day(today)
	case RangeYesterday:
		y := today.AddDate(0, 0, -1)
		return day(y), day(y)
	case RangeThisWeek:
		return day(today.AddDate(0, 0, -mondayIndex(today))), day(today)
	case RangeLastWeek:
		weekStart := today.AddDate(0, 0, -mondayIndex(today)-7)
		return day(weekStart), day(weekStart.AddDate(0, 0, 6))
	case RangeThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return day(first), day(today)
	default:
		return start, end
	}
}

// mondayIndex is the weekday index with Monday = 0 ... Sunday = 6.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
