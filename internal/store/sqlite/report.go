package sqlite

import (
	"context"
	"fmt"

	"github.com/rollcall/rollcall/internal/model"
	"github.com/rollcall/rollcall/internal/store"
)

// reportWhere renders the shared filter clause. Filters apply to the
// session date (inclusive) and to exact session/student ids.
func reportWhere(f store.ReportFilter) (string, []any) {
	where := " WHERE 1=1"
	args := []any{}
	if f.StartDate != "" {
		where += " AND ses.date >= ?"
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where += " AND ses.date <= ?"
		args = append(args, f.EndDate)
	}
	if f.SessionID != 0 {
		where += " AND a.session_id = ?"
		args = append(args, f.SessionID)
	}
	if f.StudentID != 0 {
		where += " AND a.student_id = ?"
		args = append(args, f.StudentID)
	}
	return where, args
}

// AttendanceReport runs the filtered three-way join and its aggregates
// natively. The rest adapter reproduces the same output shape in
// application code; ordering and arithmetic must stay in lockstep.
func (s *Store) AttendanceReport(ctx context.Context, f store.ReportFilter) ([]store.ReportRow, store.ReportStats, error) {
	where, args := reportWhere(f)

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.timestamp, a.status,
		       s.student_id, s.name,
		       ses.id, ses.name, ses.date
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		JOIN sessions ses ON a.session_id = ses.id`+
		where+
		" ORDER BY ses.date DESC, ses.name ASC, a.timestamp ASC", args...)
	if err != nil {
		return nil, store.ReportStats{}, fmt.Errorf("attendance report: %w", err)
	}
	defer rows.Close()

	report := []store.ReportRow{}
	for rows.Next() {
		var r store.ReportRow
		err := rows.Scan(&r.ID, &r.Timestamp, &r.Status,
			&r.StudentID, &r.StudentName,
			&r.SessionID, &r.SessionName, &r.Date)
		if err != nil {
			return nil, store.ReportStats{}, fmt.Errorf("attendance report: scan: %w", err)
		}
		report = append(report, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.ReportStats{}, fmt.Errorf("attendance report: %w", err)
	}

	var stats store.ReportStats
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT a.session_id), COUNT(DISTINCT a.student_id), COUNT(*)
		FROM attendance a
		JOIN sessions ses ON a.session_id = ses.id`+where, args...).
		Scan(&stats.TotalSessions, &stats.TotalStudents, &stats.TotalRecords)
	if err != nil {
		return nil, store.ReportStats{}, fmt.Errorf("attendance report: stats: %w", err)
	}

	if stats.TotalSessions > 0 && stats.TotalStudents > 0 {
		var active int
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM students WHERE status = ?", model.StatusActive).Scan(&active)
		if err != nil {
			return nil, store.ReportStats{}, fmt.Errorf("attendance report: active count: %w", err)
		}
		stats.AttendanceRate = store.AttendanceRate(stats.TotalRecords, active, stats.TotalSessions)
	}

	return report, stats, nil
}

// DailyStats groups the filtered rows by session date, ascending. Dates
// with no attendance are absent - no gap filling.
func (s *Store) DailyStats(ctx context.Context, f store.ReportFilter) ([]store.DailyStat, error) {
	where, args := reportWhere(f)

	rows, err := s.db.QueryContext(ctx, `
		SELECT ses.date, COUNT(*)
		FROM attendance a
		JOIN sessions ses ON a.session_id = ses.id`+
		where+
		" GROUP BY ses.date ORDER BY ses.date", args...)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	defer rows.Close()

	stats := []store.DailyStat{}
	for rows.Next() {
		var d store.DailyStat
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("daily stats: scan: %w", err)
		}
		stats = append(stats, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	return stats, nil
}
