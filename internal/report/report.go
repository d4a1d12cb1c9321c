// Package report is the reporting engine: it resolves symbolic date
// ranges, delegates the filtered joins and aggregates to the persistence
// port, and renders CSV exports.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rollcall/rollcall/internal/store"
)

// Engine answers report queries against whichever adapter is wired in.
type Engine struct {
	store store.Store
}

// NewEngine creates an Engine over the given store.
func NewEngine(st store.Store) *Engine {
	return &Engine{store: st}
}

// Build returns the filtered report rows and their aggregate stats.
func (e *Engine) Build(ctx context.Context, f store.ReportFilter) ([]store.ReportRow, store.ReportStats, error) {
	rows, stats, err := e.store.AttendanceReport(ctx, f)
	if err != nil {
		return nil, store.ReportStats{}, fmt.Errorf("build report: %w", err)
	}
	return rows, stats, nil
}

// Daily returns per-date attendance counts, ascending by date.
func (e *Engine) Daily(ctx context.Context, f store.ReportFilter) ([]store.DailyStat, error) {
	stats, err := e.store.DailyStats(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	return stats, nil
}

// csvHeader is the fixed export header.
const csvHeader = "Date,Session,Student ID,Student Name,Time,Status"

// ExportCSV renders report rows as CSV text. The time column is the
// hours:minutes:seconds of the record timestamp. Embedded commas are not
// quoted or escaped - a known limitation of the export format, kept for
// compatibility with existing consumers.
func ExportCSV(rows []store.ReportRow) (string, error) {
	var b strings.Builder
	b.WriteString(csvHeader + "\n")

	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.Timestamp)
		if err != nil {
			return "", fmt.Errorf("export csv: record %d: bad timestamp %q: %w", row.ID, row.Timestamp, err)
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			row.Date,
			row.SessionName,
			row.StudentID,
			row.StudentName,
			ts.Format("15:04:05"),
			row.Status,
		)
	}
	return b.String(), nil
}
